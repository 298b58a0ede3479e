package governance

import (
	"time"

	"assembly-service/internal/model"
	"assembly-service/internal/store"
)

// VotingSession is the state machine and ballot store of one agenda item.
// It is bound to the transaction it was created in; callers serialize
// sessions of the same assembly.
type VotingSession struct {
	ts                *store.TenantStore
	item              *model.AgendaItem
	resolver          CoefficientResolver
	requireAttendance bool
	precision         int32
}

func newVotingSession(ts *store.TenantStore, item *model.AgendaItem, requireAttendance bool, precision int32) *VotingSession {
	return &VotingSession{
		ts:                ts,
		item:              item,
		requireAttendance: requireAttendance,
		precision:         precision,
	}
}

// Item returns the agenda item as last persisted by the session
func (s *VotingSession) Item() *model.AgendaItem {
	return s.item
}

func (s *VotingSession) transition(next model.AgendaStatus) error {
	if !s.item.Status.CanTransitionTo(next) {
		return newError(CodeInvalidStateTransition, "agenda item %d cannot go from %s to %s", s.item.ID, s.item.Status, next)
	}
	return nil
}

// Open starts voting. Any other OPEN item of the assembly blocks the
// transition; the partial unique index catches a concurrent opener.
func (s *VotingSession) Open(now time.Time) error {
	if err := s.transition(model.AgendaOpen); err != nil {
		return err
	}
	sibling, err := s.ts.OpenAgendaItem(s.item.AssemblyID, s.item.ID)
	switch {
	case err == nil:
		return newError(CodeInvalidStateTransition, "agenda item %d is already open", sibling.Numeral)
	case !store.IsNotFound(err):
		return err
	}

	s.item.Status = model.AgendaOpen
	s.item.VotingStartTime = &now
	if err := s.ts.SaveAgendaItem(s.item); err != nil {
		if store.IsDuplicate(err) {
			return newError(CodeInvalidStateTransition, "another agenda item is already open")
		}
		return err
	}
	return nil
}

// Close stops voting and returns the final tally read in the same
// transaction, so no ballot is admitted after it.
func (s *VotingSession) Close(now time.Time) (*Tally, error) {
	if err := s.transition(model.AgendaClosed); err != nil {
		return nil, err
	}
	s.item.Status = model.AgendaClosed
	s.item.VotingEndTime = &now
	if err := s.ts.SaveAgendaItem(s.item); err != nil {
		return nil, err
	}
	return s.Tally()
}

// Cancel discards the item. Ballots already cast stay stored for audit.
func (s *VotingSession) Cancel(now time.Time) error {
	if err := s.transition(model.AgendaCancelled); err != nil {
		return err
	}
	if s.item.Status == model.AgendaOpen {
		s.item.VotingEndTime = &now
	}
	s.item.Status = model.AgendaCancelled
	return s.ts.SaveAgendaItem(s.item)
}

// Cast admits one ballot of userID. The existence check is a fast path;
// the unique index on (agenda item, user) decides duplicates.
func (s *VotingSession) Cast(userID uint, option string, now time.Time) (*model.Vote, error) {
	if s.item.Status != model.AgendaOpen {
		return nil, newError(CodeSessionNotOpen, "agenda item %d is %s", s.item.ID, s.item.Status)
	}
	if !s.item.HasOption(option) {
		return nil, newError(CodeValidation, "option %q is not offered on agenda item %d", option, s.item.ID)
	}
	if s.requireAttendance {
		rec, err := s.ts.Attendance(s.item.AssemblyID, userID)
		if err != nil && !store.IsNotFound(err) {
			return nil, err
		}
		if rec == nil || !rec.Present {
			return nil, newError(CodeNotAttending, "user %d is not present at assembly %d", userID, s.item.AssemblyID)
		}
	}

	voted, err := s.ts.HasVote(s.item.ID, userID)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, ErrDuplicateVote
	}

	coefficient, err := s.resolver.Resolve(s.ts, userID)
	if err != nil {
		return nil, err
	}

	vote := &model.Vote{
		AgendaItemID: s.item.ID,
		UserID:       userID,
		Option:       option,
		Coefficient:  coefficient,
		CastAt:       now,
	}
	if err := s.ts.InsertVote(vote); err != nil {
		if store.IsDuplicate(err) {
			return nil, ErrDuplicateVote
		}
		return nil, err
	}
	return vote, nil
}

// Tally returns the current result of the item
func (s *VotingSession) Tally() (*Tally, error) {
	votes, err := s.ts.Votes(s.item.ID)
	if err != nil {
		return nil, err
	}
	return ComputeTally(s.item, votes, s.precision), nil
}
