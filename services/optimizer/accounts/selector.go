package accounts

import (
	"context"
	"fmt"
	"sync"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/queries"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

// Labels shown by the selector
const (
	DefaultLabel = "Select account..."
	ErrorLabel   = "Error!"
)

var log = logger.GetOrCreate("accounts")

// ArgsSelector defines the arguments needed to create the account selector
type ArgsSelector struct {
	Executor QueryExecutor
	OnSelect func(accountID int64)
}

type selector struct {
	executor QueryExecutor
	onSelect func(accountID int64)

	mut      sync.RWMutex
	loading  bool
	failed   bool
	accounts []common.Account
	selected *common.Account
}

// NewSelector creates a new account selector
func NewSelector(args ArgsSelector) (*selector, error) {
	if check.IfNil(args.Executor) {
		return nil, ErrNilQueryExecutor
	}
	if args.OnSelect == nil {
		return nil, ErrNilSelectHandler
	}

	return &selector{
		executor: args.Executor,
		onSelect: args.OnSelect,
	}, nil
}

// Load fetches the account list. If exactly one account is available, it is selected automatically.
// A failure is kept in the state until the next Load call.
func (s *selector) Load(ctx context.Context) error {
	s.mut.Lock()
	s.loading = true
	s.mut.Unlock()

	accounts, err := s.fetchAccounts(ctx)

	s.mut.Lock()
	s.loading = false
	if err != nil {
		s.failed = true
		s.accounts = nil
		s.mut.Unlock()

		log.Error("failed to load the accounts", "error", err)
		return err
	}

	s.failed = false
	s.accounts = accounts
	s.mut.Unlock()

	log.Debug("accounts loaded", "num accounts", len(accounts))

	if len(accounts) == 1 {
		return s.Select(accounts[0].ID)
	}

	return nil
}

func (s *selector) fetchAccounts(ctx context.Context) ([]common.Account, error) {
	data, err := s.executor.Execute(ctx, queries.AccountsQuery())
	if err != nil {
		return nil, fmt.Errorf("accounts query failed: %w", err)
	}

	results := data.Get("actor.accounts")
	if !results.IsArray() {
		return nil, errAccountsNotFound
	}

	accounts := make([]common.Account, 0, len(results.Array()))
	for _, item := range results.Array() {
		accounts = append(accounts, common.Account{
			ID:   item.Get("id").Int(),
			Name: item.Get("name").String(),
		})
	}

	return accounts, nil
}

// Select selects one of the loaded accounts and notifies the select handler
func (s *selector) Select(accountID int64) error {
	s.mut.Lock()
	var found *common.Account
	for i := range s.accounts {
		if s.accounts[i].ID == accountID {
			account := s.accounts[i]
			found = &account
			break
		}
	}
	if found == nil {
		s.mut.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownAccount, accountID)
	}
	s.selected = found
	s.mut.Unlock()

	log.Info("account selected", "id", found.ID, "name", found.Name)
	s.onSelect(found.ID)

	return nil
}

// State returns the current selector state
func (s *selector) State() common.AccountsState {
	s.mut.RLock()
	defer s.mut.RUnlock()

	state := common.AccountsState{
		Loading:  s.loading,
		Failed:   s.failed,
		Accounts: make([]common.Account, len(s.accounts)),
		Label:    DefaultLabel,
	}
	copy(state.Accounts, s.accounts)

	if s.selected != nil {
		state.SelectedID = s.selected.ID
		state.Label = s.selected.Name
	}
	if s.failed {
		state.Label = ErrorLabel
	}

	return state
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *selector) IsInterfaceNil() bool {
	return s == nil
}
