package governance

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"assembly-service/internal/event"
	"assembly-service/internal/model"
	"assembly-service/internal/realtime"
	"assembly-service/internal/store"
	"assembly-service/pkg/config"
	"assembly-service/pkg/logger"
	"assembly-service/prometheus"
)

// Recorder is the audit sink. Failures are logged and never reach the caller.
type Recorder interface {
	Record(ctx context.Context, evt event.Event) error
}

// Options tunes the coordinator
type Options struct {
	LockTimeout           time.Duration
	DefaultRequiredQuorum decimal.Decimal
	RequireAttendance     bool
	PercentPrecision      int32
}

// OptionsFromConfig converts the governance section of the service config
func OptionsFromConfig(cfg config.GovernanceConfig) Options {
	return Options{
		LockTimeout:           cfg.LockTimeout,
		DefaultRequiredQuorum: decimal.NewFromFloat(cfg.RequiredQuorum),
		RequireAttendance:     cfg.RequireAttendance,
		PercentPrecision:      cfg.PercentPrecision,
	}
}

// DefaultOptions mirrors config.DefaultGovernance
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultGovernance())
}

// NewAssembly is the input of CreateAssembly
type NewAssembly struct {
	Title          string
	ScheduledAt    time.Time
	Location       string
	Type           model.AssemblyType
	RequiredQuorum *decimal.Decimal
}

// NewAgendaItem is the input of CreateAgendaItem
type NewAgendaItem struct {
	Question   string
	Options    []string
	IsWeighted bool
}

// Coordinator is the single entry point for governance mutations. It checks
// authorization, serializes writers per assembly, and turns every committed
// change into events for the audit trail and the assembly's room.
type Coordinator struct {
	store       *store.Store
	broadcaster *realtime.Broadcaster
	recorder    Recorder
	metrics     *prometheus.Metrics
	quorum      *QuorumTracker
	locks       *lockRegistry
	opts        Options
	now         func() time.Time
}

func NewCoordinator(s *store.Store, broadcaster *realtime.Broadcaster, recorder Recorder, metrics *prometheus.Metrics, opts Options) *Coordinator {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = config.DefaultGovernance().LockTimeout
	}
	return &Coordinator{
		store:       s,
		broadcaster: broadcaster,
		recorder:    recorder,
		metrics:     metrics,
		quorum:      NewQuorumTracker(opts.PercentPrecision),
		locks:       newLockRegistry(),
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateAssembly schedules a new assembly in PLANNED status
func (c *Coordinator) CreateAssembly(ctx context.Context, id Identity, in NewAssembly) (a *model.Assembly, err error) {
	defer func() { c.observe(ctx, "createAssembly", err) }()

	if err := id.requireAdmin("create assemblies"); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, newError(CodeValidation, "title is required")
	}
	if in.ScheduledAt.IsZero() {
		return nil, newError(CodeValidation, "scheduled time is required")
	}
	if in.Type == "" {
		in.Type = model.AssemblyOrdinary
	}
	if !in.Type.Valid() {
		return nil, newError(CodeValidation, "unknown assembly type %q", in.Type)
	}
	required := c.opts.DefaultRequiredQuorum
	if in.RequiredQuorum != nil {
		required = *in.RequiredQuorum
	}
	if required.IsNegative() || required.GreaterThan(hundred) {
		return nil, newError(CodeValidation, "required quorum must be within 0..100, got %s", required)
	}

	a = &model.Assembly{
		Title:          title,
		ScheduledAt:    in.ScheduledAt.UTC(),
		Location:       strings.TrimSpace(in.Location),
		Type:           in.Type,
		Status:         model.AssemblyPlanned,
		RequiredQuorum: required,
		CreatedBy:      id.UserID,
	}
	if err := c.store.Tenant(ctx, id.TenantID).CreateAssembly(a); err != nil {
		return nil, err
	}
	c.emit(ctx, event.New(event.AssemblyStatusChanged, id.TenantID, a.ID, id.UserID,
		StatusChange{AssemblyID: a.ID, To: a.Status}))
	return a, nil
}

// GetAssembly returns an assembly of the caller's tenant
func (c *Coordinator) GetAssembly(ctx context.Context, id Identity, assemblyID uint) (*model.Assembly, error) {
	a, err := c.store.Tenant(ctx, id.TenantID).Assembly(assemblyID)
	if err != nil {
		return nil, notFound(err, "assembly", assemblyID)
	}
	return a, nil
}

// StartAssembly moves a PLANNED assembly to IN_PROGRESS. It is refused until
// the present coefficient reaches the assembly's required quorum.
func (c *Coordinator) StartAssembly(ctx context.Context, id Identity, assemblyID uint) (*model.Assembly, error) {
	return c.transitionAssembly(ctx, id, assemblyID, model.AssemblyInProgress, "startAssembly")
}

// CompleteAssembly closes the assembly. It is refused while an agenda item is open.
func (c *Coordinator) CompleteAssembly(ctx context.Context, id Identity, assemblyID uint) (*model.Assembly, error) {
	return c.transitionAssembly(ctx, id, assemblyID, model.AssemblyCompleted, "completeAssembly")
}

// CancelAssembly cancels the assembly together with its pending and open items
func (c *Coordinator) CancelAssembly(ctx context.Context, id Identity, assemblyID uint) (*model.Assembly, error) {
	return c.transitionAssembly(ctx, id, assemblyID, model.AssemblyCancelled, "cancelAssembly")
}

func (c *Coordinator) transitionAssembly(ctx context.Context, id Identity, assemblyID uint, target model.AssemblyStatus, op string) (a *model.Assembly, err error) {
	defer func() { c.observe(ctx, op, err) }()

	if err := id.requireAdmin("change the assembly status"); err != nil {
		return nil, err
	}
	err = c.withAssemblyLock(ctx, id.TenantID, assemblyID, func() error {
		var events []event.Event
		err := c.transaction(ctx, id.TenantID, func(tx *store.TenantStore) error {
			var err error
			a, err = tx.AssemblyForUpdate(assemblyID)
			if err != nil {
				return notFound(err, "assembly", assemblyID)
			}
			if !a.Status.CanTransitionTo(target) {
				return newError(CodeInvalidStateTransition, "assembly %d cannot go from %s to %s", a.ID, a.Status, target)
			}
			now := c.now()

			switch target {
			case model.AssemblyInProgress:
				q, err := c.quorum.Compute(tx, a)
				if err != nil {
					return err
				}
				if !q.QuorumReached {
					return newError(CodeInvalidStateTransition, "assembly %d has %s%% present, %s%% required to start",
						a.ID, q.CurrentQuorum, q.RequiredQuorum)
				}
			case model.AssemblyCompleted:
				open, err := tx.OpenAgendaItem(a.ID, 0)
				if err == nil {
					return newError(CodeInvalidStateTransition, "agenda item %d is still open", open.Numeral)
				}
				if !store.IsNotFound(err) {
					return err
				}
			case model.AssemblyCancelled:
				items, err := tx.ListAgendaItems(a.ID)
				if err != nil {
					return err
				}
				for i := range items {
					item := &items[i]
					if !item.Status.CanTransitionTo(model.AgendaCancelled) {
						continue
					}
					if err := c.session(tx, item).Cancel(now); err != nil {
						return err
					}
					events = append(events, c.itemEvent(event.AgendaItemCancelled, id, item, nil))
				}
			}

			evt, err := c.advance(tx, a, target, id.UserID, now)
			if err != nil {
				return err
			}
			events = append(events, evt)
			return nil
		})
		if err != nil {
			return err
		}
		c.emit(ctx, events...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// RegisterAttendance marks userID present or absent and returns the new quorum.
// A zero userID means the caller. Only administrators register someone else.
// The first registration starts a PLANNED assembly.
func (c *Coordinator) RegisterAttendance(ctx context.Context, id Identity, assemblyID, userID uint, present bool) (q *Quorum, err error) {
	defer func() { c.observe(ctx, "registerAttendance", err) }()

	if userID == 0 {
		userID = id.UserID
	}
	if userID != id.UserID && !id.CanAdminister() {
		return nil, newError(CodeUnauthorized, "user %d may not register attendance for user %d", id.UserID, userID)
	}

	err = c.withAssemblyLock(ctx, id.TenantID, assemblyID, func() error {
		var events []event.Event
		err := c.transaction(ctx, id.TenantID, func(tx *store.TenantStore) error {
			a, err := tx.AssemblyForUpdate(assemblyID)
			if err != nil {
				return notFound(err, "assembly", assemblyID)
			}
			now := c.now()
			started, err := c.ensureStarted(tx, a, id.UserID, now)
			if err != nil {
				return err
			}
			events = append(events, started...)

			rec := &model.AttendanceRecord{
				AssemblyID:   a.ID,
				UserID:       userID,
				Present:      present,
				RegisteredAt: now,
				RegisteredBy: id.UserID,
			}
			if err := tx.UpsertAttendance(rec); err != nil {
				return err
			}
			q, err = c.quorum.Compute(tx, a)
			if err != nil {
				return err
			}
			events = append(events,
				event.New(event.AttendanceRegistered, id.TenantID, a.ID, id.UserID,
					AttendanceChange{UserID: userID, Present: present, RegisteredBy: id.UserID}),
				event.New(event.QuorumUpdate, id.TenantID, a.ID, id.UserID, q),
			)
			return nil
		})
		if err != nil {
			return err
		}
		c.emit(ctx, events...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuorum reads the current quorum of an assembly
func (c *Coordinator) GetQuorum(ctx context.Context, id Identity, assemblyID uint) (q *Quorum, err error) {
	err = c.transaction(ctx, id.TenantID, func(tx *store.TenantStore) error {
		a, err := tx.Assembly(assemblyID)
		if err != nil {
			return notFound(err, "assembly", assemblyID)
		}
		q, err = c.quorum.Compute(tx, a)
		return err
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// CreateAgendaItem appends a PENDING question to the assembly's agenda
func (c *Coordinator) CreateAgendaItem(ctx context.Context, id Identity, assemblyID uint, in NewAgendaItem) (item *model.AgendaItem, err error) {
	defer func() { c.observe(ctx, "createAgendaItem", err) }()

	if err := id.requireAdmin("create agenda items"); err != nil {
		return nil, err
	}
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, newError(CodeValidation, "question is required")
	}
	options, err := normalizeOptions(in.Options)
	if err != nil {
		return nil, err
	}

	err = c.withAssemblyLock(ctx, id.TenantID, assemblyID, func() error {
		err := c.transaction(ctx, id.TenantID, func(tx *store.TenantStore) error {
			a, err := tx.AssemblyForUpdate(assemblyID)
			if err != nil {
				return notFound(err, "assembly", assemblyID)
			}
			if a.Status.Terminal() {
				return newError(CodeInvalidStateTransition, "assembly %d is %s", a.ID, a.Status)
			}
			numeral, err := tx.NextNumeral(a.ID)
			if err != nil {
				return err
			}
			item = &model.AgendaItem{
				AssemblyID: a.ID,
				Numeral:    numeral,
				Question:   question,
				Options:    options,
				IsWeighted: in.IsWeighted,
				Status:     model.AgendaPending,
				CreatedBy:  id.UserID,
			}
			return tx.CreateAgendaItem(item)
		})
		if err != nil {
			return err
		}
		c.emit(ctx, c.itemEvent(event.AgendaItemCreated, id, item, nil))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListAgendaItems returns the agenda of an assembly ordered by numeral
func (c *Coordinator) ListAgendaItems(ctx context.Context, id Identity, assemblyID uint) ([]model.AgendaItem, error) {
	ts := c.store.Tenant(ctx, id.TenantID)
	if _, err := ts.Assembly(assemblyID); err != nil {
		return nil, notFound(err, "assembly", assemblyID)
	}
	return ts.ListAgendaItems(assemblyID)
}

// OpenAgendaItem starts voting on a PENDING item. Opening the first item
// starts a PLANNED assembly.
func (c *Coordinator) OpenAgendaItem(ctx context.Context, id Identity, itemID uint) (item *model.AgendaItem, err error) {
	defer func() { c.observe(ctx, "openAgendaItem", err) }()

	if err := id.requireAdmin("open agenda items"); err != nil {
		return nil, err
	}
	err = c.withItem(ctx, id, itemID, func(tx *store.TenantStore, a *model.Assembly, s *VotingSession) ([]event.Event, error) {
		now := c.now()
		events, err := c.ensureStarted(tx, a, id.UserID, now)
		if err != nil {
			return nil, err
		}
		if err := s.Open(now); err != nil {
			return nil, err
		}
		item = s.Item()
		return append(events, c.itemEvent(event.AgendaItemOpened, id, item, nil)), nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CloseAgendaItem stops voting and returns the official tally
func (c *Coordinator) CloseAgendaItem(ctx context.Context, id Identity, itemID uint) (item *model.AgendaItem, tally *Tally, err error) {
	defer func() { c.observe(ctx, "closeAgendaItem", err) }()

	if err := id.requireAdmin("close agenda items"); err != nil {
		return nil, nil, err
	}
	err = c.withItem(ctx, id, itemID, func(tx *store.TenantStore, a *model.Assembly, s *VotingSession) ([]event.Event, error) {
		if a.Status.Terminal() {
			return nil, newError(CodeInvalidStateTransition, "assembly %d is %s", a.ID, a.Status)
		}
		var err error
		tally, err = s.Close(c.now())
		if err != nil {
			return nil, err
		}
		item = s.Item()
		return []event.Event{c.itemEvent(event.AgendaItemClosed, id, item, tally)}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return item, tally, nil
}

// CancelAgendaItem discards a PENDING or OPEN item without an official result
func (c *Coordinator) CancelAgendaItem(ctx context.Context, id Identity, itemID uint) (item *model.AgendaItem, err error) {
	defer func() { c.observe(ctx, "cancelAgendaItem", err) }()

	if err := id.requireAdmin("cancel agenda items"); err != nil {
		return nil, err
	}
	err = c.withItem(ctx, id, itemID, func(tx *store.TenantStore, a *model.Assembly, s *VotingSession) ([]event.Event, error) {
		if a.Status.Terminal() {
			return nil, newError(CodeInvalidStateTransition, "assembly %d is %s", a.ID, a.Status)
		}
		if err := s.Cancel(c.now()); err != nil {
			return nil, err
		}
		item = s.Item()
		return []event.Event{c.itemEvent(event.AgendaItemCancelled, id, item, nil)}, nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CastVote admits the caller's ballot on an OPEN item and returns the live
// tally. A zero userID means the caller; nobody votes for someone else.
func (c *Coordinator) CastVote(ctx context.Context, id Identity, itemID, userID uint, option string) (tally *Tally, err error) {
	defer func() {
		c.observe(ctx, "castVote", err)
		if err != nil {
			c.metrics.RecordVote(string(CodeOf(err)))
		} else {
			c.metrics.RecordVote("accepted")
		}
	}()

	if userID == 0 {
		userID = id.UserID
	}
	if userID != id.UserID {
		return nil, newError(CodeUnauthorized, "user %d may not vote for user %d", id.UserID, userID)
	}
	option = strings.TrimSpace(option)

	err = c.withItem(ctx, id, itemID, func(tx *store.TenantStore, a *model.Assembly, s *VotingSession) ([]event.Event, error) {
		vote, err := s.Cast(userID, option, c.now())
		if err != nil {
			return nil, err
		}
		tally, err = s.Tally()
		if err != nil {
			return nil, err
		}
		item := s.Item()
		return []event.Event{
			event.New(event.VoteCast, id.TenantID, a.ID, id.UserID, BallotCast{
				AgendaItemID: item.ID,
				UserID:       vote.UserID,
				Option:       vote.Option,
				Coefficient:  vote.Coefficient,
			}).WithNumeral(item.Numeral),
			event.New(event.VoteTallyUpdate, id.TenantID, a.ID, id.UserID,
				TallyChange{AgendaItemID: item.ID, Tally: tally}).WithNumeral(item.Numeral),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return tally, nil
}

// GetTally reads the current result of an agenda item
func (c *Coordinator) GetTally(ctx context.Context, id Identity, itemID uint) (tally *Tally, err error) {
	err = c.transaction(ctx, id.TenantID, func(tx *store.TenantStore) error {
		item, err := tx.AgendaItem(itemID)
		if err != nil {
			return notFound(err, "agenda item", itemID)
		}
		tally, err = c.session(tx, item).Tally()
		return err
	})
	if err != nil {
		return nil, err
	}
	return tally, nil
}

// AuditTrail returns the audit entries of an assembly. Administrators only.
func (c *Coordinator) AuditTrail(ctx context.Context, id Identity, assemblyID uint) ([]model.AuditEntry, error) {
	if err := id.requireAdmin("read the audit trail"); err != nil {
		return nil, err
	}
	ts := c.store.Tenant(ctx, id.TenantID)
	if _, err := ts.Assembly(assemblyID); err != nil {
		return nil, notFound(err, "assembly", assemblyID)
	}
	return ts.AuditTrail(assemblyID)
}

// Subscribe joins the assembly's room. The returned stream starts with the
// current quorum and, when an item is open, that item and its live tally.
// The snapshot is taken under the writer lock so no delta is missed or
// delivered twice.
func (c *Coordinator) Subscribe(ctx context.Context, id Identity, assemblyID uint) (sub *realtime.Subscription, err error) {
	err = c.withAssemblyLock(ctx, id.TenantID, assemblyID, func() error {
		var snapshot []event.Event
		err := c.transaction(ctx, id.TenantID, func(tx *store.TenantStore) error {
			a, err := tx.Assembly(assemblyID)
			if err != nil {
				return notFound(err, "assembly", assemblyID)
			}
			q, err := c.quorum.Compute(tx, a)
			if err != nil {
				return err
			}
			snapshot = append(snapshot, event.New(event.QuorumUpdate, id.TenantID, a.ID, id.UserID, q))

			open, err := tx.OpenAgendaItem(a.ID, 0)
			if store.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return err
			}
			tally, err := c.session(tx, open).Tally()
			if err != nil {
				return err
			}
			snapshot = append(snapshot,
				c.itemEvent(event.AgendaItemOpened, id, open, nil),
				event.New(event.VoteTallyUpdate, id.TenantID, a.ID, id.UserID,
					TallyChange{AgendaItemID: open.ID, Tally: tally}).WithNumeral(open.Numeral),
			)
			return nil
		})
		if err != nil {
			return err
		}
		sub = c.broadcaster.Subscribe(realtime.Room{TenantID: id.TenantID, AssemblyID: assemblyID}, snapshot...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (c *Coordinator) transaction(ctx context.Context, tenantID uint, fn func(tx *store.TenantStore) error) error {
	defer c.metrics.TrackDBOperation("transaction")(time.Now())
	return c.store.Transaction(ctx, tenantID, fn)
}

// withAssemblyLock runs fn while holding the writer lock of the assembly
func (c *Coordinator) withAssemblyLock(ctx context.Context, tenantID, assemblyID uint, fn func() error) error {
	release, waited, err := c.locks.acquire(ctx, assemblyKey{tenantID: tenantID, assemblyID: assemblyID}, c.opts.LockTimeout)
	c.metrics.ObserveLockWait(waited)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// withItem locks the item's assembly, loads both rows in one transaction and
// emits the events fn returns once the transaction committed.
func (c *Coordinator) withItem(ctx context.Context, id Identity, itemID uint, fn func(tx *store.TenantStore, a *model.Assembly, s *VotingSession) ([]event.Event, error)) error {
	probe, err := c.store.Tenant(ctx, id.TenantID).AgendaItem(itemID)
	if err != nil {
		return notFound(err, "agenda item", itemID)
	}
	return c.withAssemblyLock(ctx, id.TenantID, probe.AssemblyID, func() error {
		var events []event.Event
		err := c.transaction(ctx, id.TenantID, func(tx *store.TenantStore) error {
			a, err := tx.AssemblyForUpdate(probe.AssemblyID)
			if err != nil {
				return notFound(err, "assembly", probe.AssemblyID)
			}
			item, err := tx.AgendaItemForUpdate(itemID)
			if err != nil {
				return notFound(err, "agenda item", itemID)
			}
			events, err = fn(tx, a, c.session(tx, item))
			return err
		})
		if err != nil {
			return err
		}
		c.emit(ctx, events...)
		return nil
	})
}

func (c *Coordinator) session(tx *store.TenantStore, item *model.AgendaItem) *VotingSession {
	return newVotingSession(tx, item, c.opts.RequireAttendance, c.opts.PercentPrecision)
}

// ensureStarted rejects finished assemblies and moves a PLANNED one to IN_PROGRESS
func (c *Coordinator) ensureStarted(tx *store.TenantStore, a *model.Assembly, actor uint, now time.Time) ([]event.Event, error) {
	switch a.Status {
	case model.AssemblyInProgress:
		return nil, nil
	case model.AssemblyPlanned:
		evt, err := c.advance(tx, a, model.AssemblyInProgress, actor, now)
		if err != nil {
			return nil, err
		}
		return []event.Event{evt}, nil
	default:
		return nil, newError(CodeInvalidStateTransition, "assembly %d is %s", a.ID, a.Status)
	}
}

func (c *Coordinator) advance(tx *store.TenantStore, a *model.Assembly, target model.AssemblyStatus, actor uint, now time.Time) (event.Event, error) {
	from := a.Status
	a.Status = target
	switch target {
	case model.AssemblyInProgress:
		a.StartedAt = &now
	case model.AssemblyCompleted, model.AssemblyCancelled:
		a.EndedAt = &now
	}
	if err := tx.SaveAssembly(a); err != nil {
		return event.Event{}, err
	}
	return event.New(event.AssemblyStatusChanged, a.TenantID, a.ID, actor,
		StatusChange{AssemblyID: a.ID, From: from, To: target}), nil
}

func (c *Coordinator) itemEvent(t event.Type, id Identity, item *model.AgendaItem, final *Tally) event.Event {
	return event.New(t, id.TenantID, item.AssemblyID, id.UserID,
		AgendaItemChange{Item: *item, FinalTally: final}).WithNumeral(item.Numeral)
}

// emit records each event in the audit trail, then publishes it to the
// assembly's room. Callers hold the assembly lock so rooms see commit order.
func (c *Coordinator) emit(ctx context.Context, events ...event.Event) {
	auditCtx := context.WithoutCancel(ctx)
	for _, evt := range events {
		if c.recorder != nil {
			if err := c.recorder.Record(auditCtx, evt); err != nil {
				c.metrics.RecordAuditFailure()
				logger.FromContext(ctx).Warn("failed to record audit entry",
					zap.String("event_type", string(evt.Type)),
					zap.Uint("tenant_id", evt.TenantID),
					zap.Uint("assembly_id", evt.AssemblyID),
					zap.Error(err),
				)
			}
		}
		if c.broadcaster != nil {
			c.broadcaster.Publish(evt)
		}
	}
}

func (c *Coordinator) observe(ctx context.Context, op string, err error) {
	if err == nil {
		c.metrics.RecordOperation(op, "OK")
		return
	}
	code := CodeOf(err)
	c.metrics.RecordOperation(op, string(code))
	if code == CodeInternal {
		logger.FromContext(ctx).Error("governance operation failed", zap.String("operation", op), zap.Error(err))
		return
	}
	logger.FromContext(ctx).Debug("governance operation rejected", zap.String("operation", op), zap.String("code", string(code)), zap.Error(err))
}

func notFound(err error, kind string, id uint) error {
	if store.IsNotFound(err) {
		return newError(CodeNotFound, "%s %d not found", kind, id)
	}
	return err
}

// normalizeOptions trims options and requires at least two distinct ones
func normalizeOptions(options []string) ([]string, error) {
	out := make([]string, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, newError(CodeValidation, "options must not be empty")
		}
		if _, dup := seen[o]; dup {
			return nil, newError(CodeValidation, "option %q is listed twice", o)
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	if len(out) < 2 {
		return nil, newError(CodeValidation, "an agenda item needs at least two options")
	}
	return out, nil
}
