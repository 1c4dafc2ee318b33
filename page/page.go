// Package page provides the state of an individual generator page visit.
package page

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/synacor/namesmith/catalog"
	"github.com/synacor/namesmith/name"
)

// State is the loading state of a page's pool.
type State string

// State constants
const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// ErrInvalidIndex is returned when a describe request points outside the last result.
var ErrInvalidIndex = errors.New("page: no generated name at that index")

type client interface {
	Send(interface{})
	CloseChannel()
	RemoteAddr() string
}

// Loader resolves a generator into its pool. *catalog.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context, g *catalog.Generator) (name.Pool, error)
}

type safePool struct {
	pool  name.Pool
	state State
	mutex sync.RWMutex
}

type safeResult struct {
	variant name.Variant
	entries []name.Entry
	mutex   sync.RWMutex
}

// Page is a single visit to a generator page. It owns the loaded pool and the
// last generated names until the visitor navigates away.
type Page struct {
	safePool   safePool
	safeResult safeResult

	// Generator is the generator the page shows
	Generator *catalog.Generator

	// Token identifies the visit
	Token string

	client client
}

type wsName struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// wsUpdate is an update that will be sent via websocket to the client.
type wsUpdate struct {
	Generator string       `json:"generator"`
	Title     string       `json:"title"`
	State     State        `json:"state"`
	Composite bool         `json:"composite"`
	Variant   name.Variant `json:"variant"`
	Names     []*wsName    `json:"names"`
}

// wsDescription is the description of a selected name.
type wsDescription struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// wsError carries an error message to the client.
type wsError struct {
	Error string `json:"error"`
}

// New instantiates a page visit for the generator.
func New(g *catalog.Generator, c client) *Page {
	return &Page{
		safePool: safePool{
			state: StateLoading,
		},
		safeResult: safeResult{
			entries: []name.Entry{},
		},
		Generator: g,
		Token:     uuid.NewString(),
		client:    c,
	}
}

// Load resolves the page's pool and tells the client once it is usable. A
// failed load leaves the page with an empty pool.
func (p *Page) Load(ctx context.Context, l Loader) {
	pool, err := l.Load(ctx, p.Generator)

	p.safePool.mutex.Lock()
	if err != nil {
		p.safePool.state = StateFailed
		p.safePool.pool = nil
	} else {
		p.safePool.state = StateReady
		p.safePool.pool = pool
	}
	p.safePool.mutex.Unlock()

	// the visitor left before the pool was ready
	if errors.Is(err, context.Canceled) {
		return
	}

	if err != nil {
		log.WithFields(p.fields()).Errorf("could not load pool: %v", err)
		p.client.Send(p.errorPayload("These names could not be loaded. Please refresh your browser."))
	}

	p.SendUpdate()
}

// State returns the loading state of the pool.
func (p *Page) State() State {
	p.safePool.mutex.RLock()
	defer p.safePool.mutex.RUnlock()

	return p.safePool.state
}

// Pool returns the loaded pool, or nil if it is not available.
func (p *Page) Pool() name.Pool {
	p.safePool.mutex.RLock()
	defer p.safePool.mutex.RUnlock()

	return p.safePool.pool
}

// Generate draws a new set of names and sends them to the client.
func (p *Page) Generate(v name.Variant, count int) []string {
	entries := name.GenerateEntries(p.Pool(), v, count)

	p.safeResult.mutex.Lock()
	p.safeResult.variant = v
	p.safeResult.entries = entries
	p.safeResult.mutex.Unlock()

	log.WithFields(p.fields()).Debugf("generated %d names", len(entries))
	p.SendUpdate()

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Describe looks up the description of a display name and sends it to the client.
func (p *Page) Describe(displayName string) string {
	p.safeResult.mutex.RLock()
	v := p.safeResult.variant
	p.safeResult.mutex.RUnlock()

	desc := name.Describe(p.Pool(), displayName, v)
	p.client.Send(&wsDescription{Name: displayName, Description: desc})
	return desc
}

// DescribeIndex sends the description of the i-th name of the last generation,
// resolved from the records it was built from.
func (p *Page) DescribeIndex(i int) (string, error) {
	p.safeResult.mutex.RLock()
	if i < 0 || i >= len(p.safeResult.entries) {
		p.safeResult.mutex.RUnlock()
		log.WithFields(p.fields()).Warnf("client asked for name #%d", i)
		p.client.Send(p.errorPayload("That name is no longer available. Please generate again."))
		return "", ErrInvalidIndex
	}
	e := p.safeResult.entries[i]
	p.safeResult.mutex.RUnlock()

	desc := name.DescribeEntry(p.Pool(), e)
	p.client.Send(&wsDescription{Name: e.Name, Description: desc})
	return desc, nil
}

// SendUpdate will send the current state of the page to the client.
func (p *Page) SendUpdate() {
	p.client.Send(p.updatePayload())
}

// Close releases the client of the page.
func (p *Page) Close() {
	p.client.CloseChannel()
	log.WithFields(p.fields()).Info("page closed")
}

// errorPayload returns an object which can be sent to the client which holds an error.
func (p *Page) errorPayload(errstr string) *wsError {
	return &wsError{errstr}
}

// updatePayload returns the state of the page as sent to the client.
func (p *Page) updatePayload() wsUpdate {
	var u wsUpdate

	u.Generator = p.Generator.Key()
	u.Title = p.Generator.Title
	u.Composite = p.Generator.Composite()
	u.State = p.State()

	p.safeResult.mutex.RLock()
	u.Variant = p.safeResult.variant
	u.Names = make([]*wsName, 0, len(p.safeResult.entries))
	for i, e := range p.safeResult.entries {
		u.Names = append(u.Names, &wsName{Index: i, Name: e.Name})
	}
	p.safeResult.mutex.RUnlock()

	return u
}

func (p *Page) fields() log.Fields {
	return log.Fields{"generator": p.Generator.Key(), "token": p.Token, "client": p.client.RemoteAddr()}
}
