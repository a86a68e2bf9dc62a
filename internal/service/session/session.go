package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/domain/dto"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/ougirez/shoplist/internal/pkg/logger"
	"github.com/ougirez/shoplist/internal/service/category"
	"github.com/ougirez/shoplist/internal/service/geo"
	"github.com/ougirez/shoplist/internal/service/pricing"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	TopN            int
	Policy          pricing.MissingQuotePolicy
	LocationTimeout time.Duration
	QuoteBatchSize  int
}

func (c Config) withDefaults() Config {
	if c.TopN <= 0 {
		c.TopN = pricing.DefaultTopN
	}
	if c.LocationTimeout <= 0 {
		c.LocationTimeout = 10 * time.Second
	}
	if c.QuoteBatchSize <= 0 {
		c.QuoteBatchSize = 50
	}
	return c
}

type Analysis struct {
	Category    domain.Category
	ActionLabel string
	Reply       string
}

type retryFunc func() (<-chan struct{}, error)

// Session owns one shopping list and drives it from catalog load to a
// finalized, saved list. All methods are safe for concurrent use.
//
// Long running work (quote fetches, branch resolution) runs in background
// tasks. Every task captures the generation it was started in and its result
// is dropped if the generation moved on in the meantime.
type Session struct {
	mx sync.Mutex

	id    uuid.UUID
	creds domain.Credentials
	deps  Deps
	cfg   Config

	state     State
	prevState State
	lastErr   error
	retry     retryFunc
	closed    bool

	products      map[int64]domain.Product
	providers     map[int64]domain.Provider
	providerTypes map[int64]domain.ProviderType

	list        *domain.ShoppingList
	ranking     []domain.ProviderTotal
	candidates  []domain.ProviderTotal
	providerID  *int64
	branch      *domain.BranchDistance
	navigation  *domain.NavigationTarget
	savedListID *int64

	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	// scope is the parent of every in-flight request; Cancel replaces it.
	scope       context.Context
	scopeCancel context.CancelFunc
	taskCancel  context.CancelFunc

	// userID never changes; lastActive is read by the manager without s.mx.
	userID     string
	lastActive atomic.Int64
}

func New(creds domain.Credentials, deps Deps, cfg Config) *Session {
	id := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	ctx = logger.WithFields(ctx, "session_id", id.String(), "user_id", creds.UserID)

	s := &Session{
		id:         id,
		creds:      creds,
		deps:       deps,
		cfg:        cfg.withDefaults(),
		state:      StateIdle,
		list:       &domain.ShoppingList{},
		ctx:        ctx,
		cancel:     cancel,
		userID:     creds.UserID,
	}
	s.touch(time.Now())
	s.scope, s.scopeCancel = context.WithCancel(ctx)

	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) State() State {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.state
}

// Start loads the catalog and moves the session from Idle to Selecting.
func (s *Session) Start(ctx context.Context) error {
	s.mx.Lock()
	if err := s.checkOpen(); err != nil {
		s.mx.Unlock()
		return err
	}
	if s.state != StateIdle {
		s.mx.Unlock()
		return fmt.Errorf("%w: start from %s", constants.ErrInvalidTransition, s.state)
	}
	creds := s.creds
	s.mx.Unlock()

	var (
		products      []domain.Product
		providers     []domain.Provider
		providerTypes []domain.ProviderType
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = s.deps.Catalog.GetProducts(gCtx, creds)
		return err
	})
	g.Go(func() (err error) {
		providers, err = s.deps.Catalog.GetProviders(gCtx, creds)
		return err
	})
	g.Go(func() (err error) {
		providerTypes, err = s.deps.Catalog.GetProviderTypes(gCtx, creds)
		return err
	})
	err := g.Wait()

	s.mx.Lock()
	defer s.mx.Unlock()

	if s.closed {
		return constants.ErrSessionNotFound
	}
	if s.state != StateIdle {
		return fmt.Errorf("%w: start from %s", constants.ErrInvalidTransition, s.state)
	}

	if err != nil {
		err = fmt.Errorf("%w: load catalog: %w", constants.ErrDataUnavailable, err)
		s.fail(err, StateIdle, s.retryStart)
		return err
	}

	s.products = make(map[int64]domain.Product, len(products))
	for _, p := range products {
		s.products[p.ID] = p
	}
	s.providers = make(map[int64]domain.Provider, len(providers))
	for _, p := range providers {
		s.providers[p.ID] = p
	}
	s.providerTypes = make(map[int64]domain.ProviderType, len(providerTypes))
	for _, t := range providerTypes {
		s.providerTypes[t.ID] = t
	}

	s.state = StateSelecting
	logger.Debugf(s.ctx, "catalog loaded: %d products, %d providers", len(products), len(providers))

	return nil
}

func (s *Session) retryStart() (<-chan struct{}, error) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Start(s.scopeContext())
	}()
	return done, nil
}

// AddItem adds quantity units of a catalog product, merging with an existing entry.
func (s *Session) AddItem(productID int64, quantity int) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	if err := s.checkEditable(productID); err != nil {
		return err
	}
	if err := s.list.Add(productID, quantity); err != nil {
		return err
	}

	s.invalidate()
	return nil
}

func (s *Session) SetQuantity(productID int64, quantity int) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	if err := s.checkEditable(productID); err != nil {
		return err
	}
	if err := s.list.Set(productID, quantity); err != nil {
		return err
	}

	s.invalidate()
	return nil
}

// RemoveItem is a no-op for products that are not in the list.
func (s *Session) RemoveItem(productID int64) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	if err := s.checkEditable(productID); err != nil {
		return err
	}
	if s.list.Remove(productID) {
		s.invalidate()
	}
	return nil
}

// Toggle adds one unit of the product when absent and removes it otherwise.
// It reports whether the product is in the list afterwards.
func (s *Session) Toggle(productID int64) (bool, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if err := s.checkEditable(productID); err != nil {
		return false, err
	}

	in := !s.list.Remove(productID)
	if in {
		if err := s.list.Add(productID, 1); err != nil {
			return false, err
		}
	}

	s.invalidate()
	return in, nil
}

// Compare fetches quotes for the current list and ranks the providers.
// An empty list is rejected with ErrValidation and the state is kept.
// The returned channel is closed once the background task has settled.
func (s *Session) Compare() (<-chan struct{}, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if err := s.checkEditable(0); err != nil {
		return nil, err
	}
	if s.list.Len() == 0 {
		return nil, fmt.Errorf("%w: shopping list is empty", constants.ErrValidation)
	}

	list := s.list.Clone()
	ctx, gen := s.beginTask()

	s.clearResults()
	s.lastErr, s.retry = nil, nil
	s.state = StateComputing

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.compute(ctx, gen, list)
	}()

	return done, nil
}

func (s *Session) compute(ctx context.Context, gen uint64, list *domain.ShoppingList) {
	quotes, err := s.fetchQuotes(ctx, list.ProductIDs())
	if ctx.Err() != nil {
		return
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	if gen != s.generation || s.state != StateComputing {
		return
	}
	defer s.finishTask()

	if err != nil {
		s.fail(fmt.Errorf("%w: fetch quotes: %w", constants.ErrDataUnavailable, err), StateSelecting, s.Compare)
		return
	}

	totals, err := pricing.AggregateTotals(list, quotes, s.products, s.cfg.Policy)
	if err != nil {
		s.fail(err, StateSelecting, nil)
		return
	}

	s.ranking = pricing.Rank(totals)
	s.candidates = pricing.TopN(s.ranking, s.cfg.TopN)
	s.state = StateRanked

	logger.Debugf(s.ctx, "ranked %d providers for %d items", len(s.ranking), list.Len())
}

// fetchQuotes requests quotes in batches, concurrently. It only returns once
// every batch has settled, and any failed batch fails the whole fetch.
func (s *Session) fetchQuotes(ctx context.Context, productIDs []int64) ([]domain.PriceQuote, error) {
	var batches [][]int64
	for start := 0; start < len(productIDs); start += s.cfg.QuoteBatchSize {
		end := min(start+s.cfg.QuoteBatchSize, len(productIDs))
		batches = append(batches, productIDs[start:end])
	}

	s.mx.Lock()
	creds := s.creds
	s.mx.Unlock()

	results := make([][]domain.PriceQuote, len(batches))

	g, gCtx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			quotes, err := s.deps.Catalog.GetPriceQuotes(gCtx, creds, batch)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			results[i] = quotes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var quotes []domain.PriceQuote
	for _, r := range results {
		quotes = append(quotes, r...)
	}
	return quotes, nil
}

// SelectProvider resolves the nearest branch of a ranked provider using a
// fresh location fix. Location failures and providers without branches end
// in BranchUnavailable; the ranking stays usable.
func (s *Session) SelectProvider(providerID int64, locator Locator) (<-chan struct{}, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if !s.state.hasRanking() {
		return nil, fmt.Errorf("%w: select provider from %s", constants.ErrInvalidTransition, s.state)
	}
	if !s.isRanked(providerID) {
		return nil, fmt.Errorf("%w: provider %d is not ranked", constants.ErrValidation, providerID)
	}

	ctx, gen := s.beginTask()

	s.providerID = &providerID
	s.branch, s.navigation = nil, nil
	s.lastErr, s.retry = nil, nil
	s.state = StateBranchPending

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.resolveBranch(ctx, gen, providerID, locator)
	}()

	return done, nil
}

func (s *Session) resolveBranch(ctx context.Context, gen uint64, providerID int64, locator Locator) {
	s.mx.Lock()
	creds := s.creds
	s.mx.Unlock()

	var (
		loc      *domain.UserLocation
		locErr   error
		branches []domain.Branch
	)

	// A failed branch fetch must not cancel the fix, or it would read as a
	// location failure.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		locCtx, cancel := context.WithTimeout(ctx, s.cfg.LocationTimeout)
		defer cancel()

		loc, locErr = currentLocation(locCtx, locator, creds)
		return nil
	})
	g.Go(func() (err error) {
		branches, err = s.deps.Catalog.GetBranches(gCtx, creds, providerID)
		return err
	})
	branchErr := g.Wait()

	if ctx.Err() != nil {
		return
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	if gen != s.generation || s.state != StateBranchPending {
		return
	}
	defer s.finishTask()

	if locErr != nil {
		s.lastErr = locErr
		s.state = StateBranchUnavailable
		logger.Infof(s.ctx, "branch unavailable for provider %d: %v", providerID, locErr)
		return
	}

	if branchErr != nil {
		s.fail(fmt.Errorf("%w: fetch branches: %w", constants.ErrDataUnavailable, branchErr), StateRanked, func() (<-chan struct{}, error) {
			return s.SelectProvider(providerID, locator)
		})
		return
	}

	nearest, err := geo.NearestBranch(loc, providerID, branches)
	if err != nil {
		s.lastErr = err
		s.state = StateBranchUnavailable
		return
	}

	target := geo.NavigationTarget(nearest.Branch, s.providers[providerID].Name)
	s.branch = &nearest
	s.navigation = &target
	s.state = StateBranchResolved
}

func currentLocation(ctx context.Context, locator Locator, creds domain.Credentials) (*domain.UserLocation, error) {
	if locator == nil {
		return nil, constants.ErrLocationUnavailable
	}

	loc, err := locator.CurrentLocation(ctx, creds)
	switch {
	case err == nil && loc == nil:
		return nil, constants.ErrLocationUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: location timeout", constants.ErrLocationUnavailable)
	case err != nil && !errors.Is(err, constants.ErrPermissionDenied) && !errors.Is(err, constants.ErrLocationUnavailable):
		return nil, fmt.Errorf("%w: %w", constants.ErrLocationUnavailable, err)
	}
	return loc, err
}

// RequestAnalysis asks the analyzer for follow-up text about the list. The
// prompt template is picked from the category of the selected provider, or of
// the cheapest provider when none is selected. Session state is not changed.
func (s *Session) RequestAnalysis(ctx context.Context) (Analysis, error) {
	s.mx.Lock()
	if err := s.checkOpen(); err != nil {
		s.mx.Unlock()
		return Analysis{}, err
	}
	if s.products == nil {
		s.mx.Unlock()
		return Analysis{}, fmt.Errorf("%w: catalog is not loaded", constants.ErrInvalidTransition)
	}
	if s.list.Len() == 0 {
		s.mx.Unlock()
		return Analysis{}, fmt.Errorf("%w: shopping list is empty", constants.ErrValidation)
	}
	if s.deps.Analyzer == nil {
		s.mx.Unlock()
		return Analysis{}, fmt.Errorf("%w: analyzer is not configured", constants.ErrAnalysis)
	}

	cat := s.dominantCategory()
	names := make([]string, 0, s.list.Len())
	for _, id := range s.list.ProductIDs() {
		names = append(names, s.products[id].Name)
	}
	creds := s.creds
	scope := s.scope
	s.mx.Unlock()

	aCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(scope, cancel)
	defer stop()

	reply, err := s.deps.Analyzer.Analyze(aCtx, creds, category.BuildPrompt(cat, names))
	if err != nil {
		if errors.Is(err, constants.ErrAnalysis) {
			return Analysis{}, err
		}
		return Analysis{}, fmt.Errorf("%w: %w", constants.ErrAnalysis, err)
	}

	return Analysis{
		Category:    cat,
		ActionLabel: category.ActionLabel(cat),
		Reply:       reply,
	}, nil
}

func (s *Session) dominantCategory() domain.Category {
	var providerID int64
	switch {
	case s.providerID != nil:
		providerID = *s.providerID
	case len(s.ranking) > 0:
		providerID = s.ranking[0].ProviderID
	default:
		return domain.CategoryOther
	}

	provider, ok := s.providers[providerID]
	if !ok {
		return domain.CategoryOther
	}
	return category.Classify(s.providerTypes[provider.ProviderTypeID].Name)
}

// Retry re-runs the operation that moved the session into Error, starting
// from the state the session was in before it.
func (s *Session) Retry() (<-chan struct{}, error) {
	s.mx.Lock()
	if err := s.checkOpen(); err != nil {
		s.mx.Unlock()
		return nil, err
	}
	if s.state != StateError {
		s.mx.Unlock()
		return nil, fmt.Errorf("%w: retry from %s", constants.ErrInvalidTransition, s.state)
	}
	if s.retry == nil {
		s.mx.Unlock()
		return nil, fmt.Errorf("%w: last error is not retryable", constants.ErrInvalidTransition)
	}

	retry := s.retry
	s.state = s.prevState
	s.lastErr, s.retry = nil, nil
	s.mx.Unlock()

	return retry()
}

// Finalize saves the list and makes the session terminal. It is allowed once
// a ranking exists and no branch lookup is pending or failed.
func (s *Session) Finalize(ctx context.Context) (int64, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if s.state == StateSelecting && s.list.Len() == 0 {
		return 0, fmt.Errorf("%w: shopping list is empty", constants.ErrValidation)
	}
	if s.state != StateRanked && s.state != StateBranchResolved {
		return 0, fmt.Errorf("%w: finalize from %s", constants.ErrInvalidTransition, s.state)
	}

	providerID := s.providerID
	if providerID == nil && len(s.ranking) > 0 {
		top := s.ranking[0].ProviderID
		providerID = &top
	}

	var id int64
	if s.deps.Saver != nil {
		var err error
		id, err = s.deps.Saver.SaveShoppingList(ctx, s.creds.UserID, s.list.Items(), providerID)
		if err != nil {
			return 0, fmt.Errorf("%w: save shopping list: %w", constants.ErrDataUnavailable, err)
		}
		s.savedListID = &id
	}

	s.cancelTask()
	s.providerID = providerID
	s.state = StateFinalized
	logger.Infof(s.ctx, "shopping list finalized, saved id %d", id)

	return id, nil
}

// Cancel drops every in-flight request. A pending comparison goes back to
// Selecting and a pending branch lookup goes back to Ranked.
func (s *Session) Cancel() {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.cancelTask()
	s.generation++
	s.scopeCancel()
	s.scope, s.scopeCancel = context.WithCancel(s.ctx)

	switch s.state {
	case StateComputing:
		s.state = StateSelecting
	case StateBranchPending:
		s.providerID = nil
		s.state = StateRanked
	}
}

// Close cancels everything the session is doing. A closed session rejects
// all further operations.
func (s *Session) Close() {
	s.mx.Lock()
	defer s.mx.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.generation++
	s.cancelTask()
	s.cancel()
}

func (s *Session) Snapshot() dto.SessionResponse {
	s.mx.Lock()
	defer s.mx.Unlock()

	resp := dto.SessionResponse{
		ID:                s.id.String(),
		State:             s.state.String(),
		Items:             s.list.Items(),
		Ranking:           s.ranking,
		Candidates:        s.candidates,
		ProviderID:        s.providerID,
		Branch:            s.branch,
		Navigation:        s.navigation,
		NavigationEnabled: s.state == StateBranchResolved || (s.state == StateFinalized && s.navigation != nil),
		Retryable:         s.state == StateError && s.retry != nil,
		SavedListID:       s.savedListID,
	}
	if s.lastErr != nil {
		resp.Error = s.lastErr.Error()
	}

	return resp
}

func (s *Session) owner() string {
	return s.userID
}

// setCredentials keeps the most recent token of the owner for outgoing calls.
func (s *Session) setCredentials(creds domain.Credentials) {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.creds = creds
}

func (s *Session) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) scopeContext() context.Context {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.scope
}

func (s *Session) isRanked(providerID int64) bool {
	for _, t := range s.ranking {
		if t.ProviderID == providerID {
			return true
		}
	}
	return false
}

// Callers hold s.mx.

func (s *Session) checkOpen() error {
	if s.closed {
		return constants.ErrSessionNotFound
	}
	if s.state == StateFinalized {
		return constants.ErrSessionFinalized
	}
	return nil
}

// checkEditable also checks productID against the catalog unless it is zero.
func (s *Session) checkEditable(productID int64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.products == nil {
		return fmt.Errorf("%w: catalog is not loaded", constants.ErrInvalidTransition)
	}
	if productID != 0 {
		if _, ok := s.products[productID]; !ok {
			return fmt.Errorf("%w: unknown product %d", constants.ErrValidation, productID)
		}
	}
	return nil
}

// invalidate drops results computed for an older version of the list.
func (s *Session) invalidate() {
	s.cancelTask()
	s.generation++
	s.clearResults()
	s.lastErr, s.retry = nil, nil
	s.state = StateSelecting
}

func (s *Session) clearResults() {
	s.ranking, s.candidates = nil, nil
	s.providerID, s.branch, s.navigation = nil, nil, nil
}

func (s *Session) beginTask() (context.Context, uint64) {
	s.cancelTask()
	s.generation++

	ctx, cancel := context.WithCancel(s.scope)
	s.taskCancel = cancel

	return ctx, s.generation
}

func (s *Session) finishTask() {
	s.cancelTask()
}

func (s *Session) cancelTask() {
	if s.taskCancel != nil {
		s.taskCancel()
		s.taskCancel = nil
	}
}

func (s *Session) fail(err error, prev State, retry retryFunc) {
	s.prevState = prev
	s.state = StateError
	s.lastErr = err
	s.retry = retry

	logger.Warnf(s.ctx, "session moved to error from %s: %v", prev, err)
}
