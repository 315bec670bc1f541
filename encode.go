package tradelog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// The journal file is line-oriented JSON: one event per line, tagged with a
// kind so trades and cash events can share one file and stay in entry order.
const (
	kindTrade = "trade"
	kindCash  = "cash"
)

type journalLine struct {
	Kind string `json:"kind"`
}

// EncodeJournal writes trades and cash events as JSONL, one object per line.
// Events are written in replay order so a journal file diff reads naturally.
func EncodeJournal(w io.Writer, txs []Transaction, cash []CashTransaction) error {
	bw := bufio.NewWriter(w)
	for _, t := range SortTransactions(txs) {
		if err := encodeLine(bw, kindTrade, t); err != nil {
			return err
		}
	}
	for _, c := range SortCashTransactions(cash) {
		if err := encodeLine(bw, kindCash, c); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encodeLine(w *bufio.Writer, kind string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var line jsonObjectWriter
	line.Append("kind", kind)
	line.Embed(body)
	out, err := line.MarshalJSON()
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// DecodeJournal reads a JSONL journal back into trades and cash events.
// Unknown kinds are an error: a journal written by a newer version should not
// be silently truncated.
func DecodeJournal(r io.Reader) (txs []Transaction, cash []CashTransaction, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var line journalLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, nil, fmt.Errorf("journal line %d: %w", n, err)
		}
		switch line.Kind {
		case kindTrade:
			var t Transaction
			if err := json.Unmarshal(raw, &t); err != nil {
				return nil, nil, fmt.Errorf("journal line %d: %w", n, err)
			}
			txs = append(txs, t)
		case kindCash:
			var c CashTransaction
			if err := json.Unmarshal(raw, &c); err != nil {
				return nil, nil, fmt.Errorf("journal line %d: %w", n, err)
			}
			cash = append(cash, c)
		default:
			return nil, nil, fmt.Errorf("journal line %d: unknown kind %q", n, line.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return txs, cash, nil
}
