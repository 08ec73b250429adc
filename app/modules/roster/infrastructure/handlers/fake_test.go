package rosterhandlers

import (
	"context"

	"github.com/google/uuid"

	lockdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/domain"
	rosterservice "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/application"
	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// FakeService is a programmable stub for rosterservice.Service. Unset
// methods return an empty success.
type FakeService struct {
	calls []string

	CreateCompetitionFunc func(ctx context.Context, name string, salaryCap int64) (rosterservice.CompetitionResult, error)
	ImportPriceListFunc   func(ctx context.Context, id uuid.UUID, data []byte) (results.OperationResult[int, error], error)
	ValidateRosterFunc    func(ctx context.Context, id uuid.UUID, picks []rosterservice.SlotPick) (results.OperationResult[rosterdomain.ValidationReport, error], error)
	GetRosterFunc         func(ctx context.Context, id uuid.UUID) (rosterservice.RosterResult, error)
	AutosaveFunc          func(ctx context.Context, id uuid.UUID, picks []rosterservice.SlotPick) (rosterservice.RosterResult, error)
	SubmitFunc            func(ctx context.Context, id uuid.UUID, picks []rosterservice.SlotPick) (rosterservice.RosterResult, error)
	CheckSelectionFunc    func(ctx context.Context, id uuid.UUID, slot rosterdomain.SlotID, competitorID string) (results.OperationResult[rosterservice.SelectionCheck, error], error)
}

var _ rosterservice.Service = (*FakeService)(nil)

func (f *FakeService) Calls() []string { return append([]string{}, f.calls...) }

func (f *FakeService) record(name string) { f.calls = append(f.calls, name) }

func emptyRoster(id uuid.UUID) rosterservice.RosterResult {
	return results.SuccessResult[rosterservice.RosterView, error](rosterservice.RosterView{ID: id})
}

func (f *FakeService) CreateCompetition(ctx context.Context, name string, salaryCap int64) (rosterservice.CompetitionResult, error) {
	f.record("CreateCompetition")
	if f.CreateCompetitionFunc != nil {
		return f.CreateCompetitionFunc(ctx, name, salaryCap)
	}
	return results.SuccessResult[rosterservice.CompetitionView, error](rosterservice.CompetitionView{Name: name}), nil
}

func (f *FakeService) UpsertCompetitors(_ context.Context, _ uuid.UUID, competitors []rosterdomain.Competitor) (results.OperationResult[int, error], error) {
	f.record("UpsertCompetitors")
	return results.SuccessResult[int, error](len(competitors)), nil
}

func (f *FakeService) ImportPriceList(ctx context.Context, id uuid.UUID, data []byte) (results.OperationResult[int, error], error) {
	f.record("ImportPriceList")
	if f.ImportPriceListFunc != nil {
		return f.ImportPriceListFunc(ctx, id, data)
	}
	return results.SuccessResult[int, error](0), nil
}

func (f *FakeService) ListCompetitors(context.Context, uuid.UUID) (results.OperationResult[[]rosterdomain.Competitor, error], error) {
	f.record("ListCompetitors")
	return results.SuccessResult[[]rosterdomain.Competitor, error]([]rosterdomain.Competitor{}), nil
}

func (f *FakeService) ValidateRoster(ctx context.Context, id uuid.UUID, picks []rosterservice.SlotPick) (results.OperationResult[rosterdomain.ValidationReport, error], error) {
	f.record("ValidateRoster")
	if f.ValidateRosterFunc != nil {
		return f.ValidateRosterFunc(ctx, id, picks)
	}
	return results.SuccessResult[rosterdomain.ValidationReport, error](rosterdomain.ValidationReport{}), nil
}

func (f *FakeService) CheckSelection(ctx context.Context, id uuid.UUID, slot rosterdomain.SlotID, competitorID string) (results.OperationResult[rosterservice.SelectionCheck, error], error) {
	f.record("CheckSelection")
	if f.CheckSelectionFunc != nil {
		return f.CheckSelectionFunc(ctx, id, slot, competitorID)
	}
	return results.SuccessResult[rosterservice.SelectionCheck, error](rosterservice.SelectionCheck{}), nil
}

func (f *FakeService) CreateRoster(_ context.Context, _ uuid.UUID, _ string) (rosterservice.RosterResult, error) {
	f.record("CreateRoster")
	return emptyRoster(uuid.New()), nil
}

func (f *FakeService) GetRoster(ctx context.Context, id uuid.UUID) (rosterservice.RosterResult, error) {
	f.record("GetRoster")
	if f.GetRosterFunc != nil {
		return f.GetRosterFunc(ctx, id)
	}
	return emptyRoster(id), nil
}

func (f *FakeService) Autosave(ctx context.Context, id uuid.UUID, picks []rosterservice.SlotPick) (rosterservice.RosterResult, error) {
	f.record("Autosave")
	if f.AutosaveFunc != nil {
		return f.AutosaveFunc(ctx, id, picks)
	}
	return emptyRoster(id), nil
}

func (f *FakeService) Submit(ctx context.Context, id uuid.UUID, picks []rosterservice.SlotPick) (rosterservice.RosterResult, error) {
	f.record("Submit")
	if f.SubmitFunc != nil {
		return f.SubmitFunc(ctx, id, picks)
	}
	return emptyRoster(id), nil
}

func (f *FakeService) BeginEdit(_ context.Context, id uuid.UUID) (rosterservice.RosterResult, error) {
	f.record("BeginEdit")
	return emptyRoster(id), nil
}

func (f *FakeService) Editability(context.Context, uuid.UUID) (results.OperationResult[lockdomain.EditabilityState, error], error) {
	f.record("Editability")
	return results.SuccessResult[lockdomain.EditabilityState, error](lockdomain.EditabilityState{IsEditable: true}), nil
}

func (f *FakeService) ListScorableRosters(context.Context, uuid.UUID) ([]rosterservice.ScorableRoster, error) {
	f.record("ListScorableRosters")
	return nil, nil
}
