package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/domain/models"
	"github.com/mamadbah2/coldstore/internal/inventory"
	"github.com/mamadbah2/coldstore/internal/service/reporting"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

const helpText = `Commands:
/stock [current|initial|outgoing] - stock by variety and size
/lots - receipts grouped by date
/breakdown <variety|total> <size|total> [mode] - lots behind a stock figure
/help - this message`

// ReportingAdapter defines the reporting functions required by the dispatcher.
type ReportingAdapter interface {
	Summary(ctx context.Context, mode inventory.Mode, filter inventory.LocationFilter) (inventory.StockSummary, error)
	Breakdown(ctx context.Context, sel inventory.Selector, filter inventory.LocationFilter) (inventory.Breakdown, error)
	LotGroups(ctx context.Context, filter inventory.LocationFilter, order inventory.SortOrder) ([]inventory.DateGroup, error)
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	reporting ReportingAdapter
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(reporting ReportingAdapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{reporting: reporting, logger: logger}
}

// HandleCommand runs a read-only stock query and renders the answer.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandHelp:
		return helpText, nil
	case models.CommandStock:
		mode := inventory.ModeCurrent
		if len(cmd.Args) > 0 {
			parsed, err := inventory.ParseMode(cmd.Args[0])
			if err != nil {
				return "", ErrInvalidArguments
			}
			mode = parsed
		}
		summary, err := s.reporting.Summary(ctx, mode, inventory.LocationFilter{})
		if err != nil {
			return "", fmt.Errorf("stock summary: %w", err)
		}
		return reporting.FormatSummary(summary), nil
	case models.CommandLots:
		groups, err := s.reporting.LotGroups(ctx, inventory.LocationFilter{}, inventory.SortAscending)
		if err != nil {
			return "", fmt.Errorf("lot groups: %w", err)
		}
		return reporting.FormatLotGroups(groups), nil
	case models.CommandBreakdown:
		sel, err := parseSelector(cmd.Args)
		if err != nil {
			return "", err
		}
		summary, err := s.reporting.Summary(ctx, sel.Mode, inventory.LocationFilter{})
		if err != nil {
			return "", fmt.Errorf("stock summary: %w", err)
		}
		sel = canonicalize(sel, summary)

		breakdown, err := s.reporting.Breakdown(ctx, sel, inventory.LocationFilter{})
		if err != nil {
			return "", fmt.Errorf("stock breakdown: %w", err)
		}
		return reporting.FormatBreakdown(breakdown), nil
	default:
		return "", ErrUnsupportedCommand
	}
}

// parseSelector reads "<variety...> <size> [mode]". Variety names may hold spaces.
func parseSelector(args []string) (inventory.Selector, error) {
	sel := inventory.Selector{Mode: inventory.ModeCurrent}
	if len(args) > 2 {
		if mode, err := inventory.ParseMode(args[len(args)-1]); err == nil {
			sel.Mode = mode
			args = args[:len(args)-1]
		}
	}
	if len(args) < 2 {
		return inventory.Selector{}, ErrInvalidArguments
	}

	sel.Variety = strings.Join(args[:len(args)-1], " ")
	sel.Size = args[len(args)-1]
	if strings.EqualFold(sel.Variety, inventory.TotalLabel) || strings.EqualFold(sel.Size, inventory.TotalLabel) {
		sel.IsTotal = true
	}
	return sel, nil
}

// canonicalize maps user-typed names onto the table's spelling so lookups
// are case-insensitive.
func canonicalize(sel inventory.Selector, summary inventory.StockSummary) inventory.Selector {
	for _, row := range summary.Rows {
		if strings.EqualFold(row.Variety, sel.Variety) {
			sel.Variety = row.Variety
			break
		}
	}
	for _, size := range summary.Sizes {
		if strings.EqualFold(size, sel.Size) {
			sel.Size = size
			break
		}
	}
	if strings.EqualFold(sel.Variety, inventory.TotalLabel) {
		sel.Variety = ""
	}
	if strings.EqualFold(sel.Size, inventory.TotalLabel) {
		sel.Size = ""
	}
	return sel
}
