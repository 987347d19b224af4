package audit

import (
	"encoding/json"
	"fmt"
)

// Verify checks the hash chain of the log at path and returns the number
// of entries checked. The error describes the first violation.
func Verify(path string) (int, error) {
	expectedPrev := genesisHash()
	var prevSeq uint64
	count := 0

	err := scan(path, func(lineno int, line []byte) error {
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("line %d: invalid JSON: %w", lineno, err)
		}
		if e.Seq != prevSeq+1 {
			return fmt.Errorf("line %d: sequence gap: expected %d, got %d", lineno, prevSeq+1, e.Seq)
		}
		if e.PrevHash != expectedPrev {
			return fmt.Errorf("line %d: prev_hash mismatch: expected %s, got %s", lineno, short(expectedPrev), short(e.PrevHash))
		}
		if computed := computeHash(e); e.Hash != computed {
			return fmt.Errorf("line %d: hash mismatch: expected %s, got %s", lineno, short(computed), short(e.Hash))
		}
		expectedPrev = e.Hash
		prevSeq = e.Seq
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	return count, nil
}

// Tail returns the last n entries of the log, skipping unreadable lines.
func Tail(path string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	ring := make([]Entry, 0, n)
	err := scan(path, func(_ int, line []byte) error {
		var e Entry
		if json.Unmarshal(line, &e) != nil {
			return nil
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ring, nil
}

func short(hash string) string {
	if len(hash) > 16 {
		return hash[:16] + "..."
	}
	return hash
}
