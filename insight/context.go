// Package insight builds AI-generated commentary on a portfolio. The engine
// output crosses into this package as an explicitly typed summary, never as a
// loose JSON blob, so the boundary stays checkable.
package insight

import (
	"fmt"
	"strings"

	"github.com/tradelog/tradelog"
)

// PositionSummary is the slice of one open position that matters for
// commentary. Money values are pre-formatted in the reporting currency.
type PositionSummary struct {
	Symbol      string
	Asset       tradelog.AssetType
	Direction   tradelog.Direction
	Quantity    string
	AverageCost string
	Mark        string
	MarkStale   bool
	Unrealized  string
	Realized    string
}

// Context is the typed summary handed to the text generator.
type Context struct {
	Date            tradelog.Date
	PortfolioValue  string
	NetCashFlow     string
	TotalRealized   string
	TotalUnrealized string
	OpenPositions   int
	StalePrices     int
	Positions       []PositionSummary
}

// BuildContext flattens a snapshot and its positions into a Context.
func BuildContext(s tradelog.PortfolioSnapshot, positions []tradelog.Position) Context {
	c := Context{
		Date:            s.SnapshotDate,
		PortfolioValue:  s.PortfolioValue.String(),
		NetCashFlow:     s.NetCashFlow.String(),
		TotalRealized:   s.TotalRealized.SignedString(),
		TotalUnrealized: s.TotalUnrealized.SignedString(),
		OpenPositions:   s.OpenPositions,
		StalePrices:     s.StalePrices,
	}
	for _, p := range positions {
		if p.Status != tradelog.PositionOpen {
			continue
		}
		c.Positions = append(c.Positions, PositionSummary{
			Symbol:      p.Symbol,
			Asset:       p.Asset,
			Direction:   p.Direction,
			Quantity:    p.Quantity.String(),
			AverageCost: p.AverageCost.String(),
			Mark:        p.Mark.String(),
			MarkStale:   p.MarkStale,
			Unrealized:  p.Unrealized.SignedString(),
			Realized:    p.RealizedPL.SignedString(),
		})
	}
	return c
}

// Prompt renders the context as the user part of the generation request.
func (c Context) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Portfolio review for %s.\n\n", c.Date)
	fmt.Fprintf(&b, "Portfolio value: %s (net contributions %s).\n", c.PortfolioValue, c.NetCashFlow)
	fmt.Fprintf(&b, "Realized P&L to date: %s. Unrealized P&L: %s.\n", c.TotalRealized, c.TotalUnrealized)
	fmt.Fprintf(&b, "Open positions: %d", c.OpenPositions)
	if c.StalePrices > 0 {
		fmt.Fprintf(&b, " (%d without a live price)", c.StalePrices)
	}
	b.WriteString(".\n")
	if len(c.Positions) > 0 {
		b.WriteString("\nPositions:\n")
	}
	for _, p := range c.Positions {
		fmt.Fprintf(&b, "- %s %s %s x%s, avg %s, mark %s", p.Direction, p.Symbol, p.Asset, p.Quantity, p.AverageCost, p.Mark)
		if p.MarkStale {
			b.WriteString(" (stale)")
		}
		fmt.Fprintf(&b, ", unrealized %s, realized %s\n", p.Unrealized, p.Realized)
	}
	return b.String()
}
