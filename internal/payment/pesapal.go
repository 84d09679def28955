package payment

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrUnknownReference = errors.New("unknown payment reference")

const embedBase = "https://store.pesapal.com/embed-code?pageUrl=%s"

// PendingDeposit is a deposit waiting for the hosted payment page to report
// completion. The amount is fixed at initiation; nothing the provider sends
// back can change it.
type PendingDeposit struct {
	Reference string    `json:"reference"`
	Phone     string    `json:"phone"`
	Amount    int       `json:"amount"`
	EmbedURL  string    `json:"embedUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Client wraps the Pesapal hosted payment page. The provider is opaque to
// the rest of the system: the only signal consumed is "payment complete"
// for a reference we issued ourselves.
type Client struct {
	pageURL string

	mu      sync.Mutex
	pending map[string]PendingDeposit
}

func NewClient(pageURL string) *Client {
	return &Client{
		pageURL: pageURL,
		pending: make(map[string]PendingDeposit),
	}
}

// Initiate parks a deposit and returns the reference plus the embed URL the
// client should render.
func (c *Client) Initiate(phone string, amount int) PendingDeposit {
	deposit := PendingDeposit{
		Reference: uuid.NewString(),
		Phone:     phone,
		Amount:    amount,
		EmbedURL:  fmt.Sprintf(embedBase, c.pageURL),
		CreatedAt: time.Now().UTC(),
	}
	c.mu.Lock()
	c.pending[deposit.Reference] = deposit
	c.mu.Unlock()
	return deposit
}

// Confirm consumes the pending deposit for ref. A reference confirms at
// most once.
func (c *Client) Confirm(ref string) (PendingDeposit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	deposit, ok := c.pending[ref]
	if !ok {
		return PendingDeposit{}, ErrUnknownReference
	}
	delete(c.pending, ref)
	return deposit, nil
}

// Expire drops deposits initiated before cutoff and returns how many were
// dropped.
func (c *Client) Expire(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for ref, deposit := range c.pending {
		if deposit.CreatedAt.Before(cutoff) {
			delete(c.pending, ref)
			dropped++
		}
	}
	return dropped
}

// PendingCount reports how many deposits are awaiting confirmation.
func (c *Client) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
