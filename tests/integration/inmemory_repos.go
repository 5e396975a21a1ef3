package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pesa-gateway/internal/core/domain"
	"pesa-gateway/internal/core/ports"

	"github.com/google/uuid"
)

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == a.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) GetBySandboxKey(ctx context.Context, key string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.SandboxKey == key {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) GetByLiveKeyHash(ctx context.Context, hash string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.LiveKeyHash == hash {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return fmt.Errorf("account not found")
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryAccountRepo) SetWebhook(ctx context.Context, id uuid.UUID, url, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return fmt.Errorf("account not found")
	}
	a.WebhookURL = &url
	a.WebhookSecret = &secret
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[string]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transactions[t.ID]; ok {
		return fmt.Errorf("duplicate transaction id")
	}
	cp := copyTransaction(t)
	r.transactions[t.ID] = cp
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	return copyTransaction(t), nil
}

func (r *inMemoryTransactionRepo) GetByIDForAccount(ctx context.Context, accountID uuid.UUID, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok || t.AccountID != accountID {
		return nil, nil
	}
	return copyTransaction(t), nil
}

// ResolvePending mirrors the SQL compare-and-set: only a PENDING row
// transitions, and exactly one caller observes applied=true.
func (r *inMemoryTransactionRepo) ResolvePending(ctx context.Context, id string, res ports.Resolution) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok || t.Status != domain.TransactionStatusPending {
		return false, nil
	}
	t.Status = res.Status
	t.ProviderRef = res.ProviderRef
	completedAt := res.CompletedAt
	t.CompletedAt = &completedAt
	if res.Simulated {
		if t.Metadata == nil {
			t.Metadata = make(map[string]interface{})
		}
		t.Metadata["sandbox_simulated"] = true
	}
	return true, nil
}

func (r *inMemoryTransactionRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transaction
	for _, t := range r.transactions {
		if t.Status == domain.TransactionStatusPending && t.CreatedAt.Before(cutoff) {
			out = append(out, *copyTransaction(t))
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func copyTransaction(t *domain.Transaction) *domain.Transaction {
	cp := *t
	if t.Metadata != nil {
		cp.Metadata = make(map[string]interface{}, len(t.Metadata))
		for k, v := range t.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// --- In-Memory Webhook Job Repo ---

type inMemoryWebhookJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.WebhookJob
}

func newInMemoryWebhookJobRepo() *inMemoryWebhookJobRepo {
	return &inMemoryWebhookJobRepo{jobs: make(map[uuid.UUID]*domain.WebhookJob)}
}

func (r *inMemoryWebhookJobRepo) Enqueue(ctx context.Context, job *domain.WebhookJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *inMemoryWebhookJobRepo) ClaimDue(ctx context.Context, now time.Time) (*domain.WebhookJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var oldest *domain.WebhookJob
	for _, j := range r.jobs {
		if j.Status != domain.WebhookJobStatusPending || j.NextRunAt.After(now) {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, nil
	}
	oldest.Attempts++
	oldest.NextRunAt = now.Add(time.Minute)
	oldest.UpdatedAt = now
	cp := *oldest
	return &cp, nil
}

func (r *inMemoryWebhookJobRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(id, domain.WebhookJobStatusCompleted, nil)
}

func (r *inMemoryWebhookJobRepo) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.setStatus(id, domain.WebhookJobStatusFailed, &lastError)
}

func (r *inMemoryWebhookJobRepo) Reschedule(ctx context.Context, id uuid.UUID, nextRun time.Time, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job not found")
	}
	j.NextRunAt = nextRun
	j.LastError = &lastError
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryWebhookJobRepo) setStatus(id uuid.UUID, status domain.WebhookJobStatus, lastError *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job not found")
	}
	j.Status = status
	if lastError != nil {
		j.LastError = lastError
	}
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryWebhookJobRepo) countByStatus(status domain.WebhookJobStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, j := range r.jobs {
		if j.Status == status {
			n++
		}
	}
	return n
}
