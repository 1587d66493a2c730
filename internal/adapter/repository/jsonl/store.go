// Package jsonl stores the fund in a single JSON-lines file. Every line is
// one entity tagged with its collection; saves rewrite a temporary file and
// rename it over the old one.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

const (
	recordInvestor    = "investor"
	recordTranche     = "tranche"
	recordTransaction = "transaction"
	recordFeeRecord   = "fee_record"
)

// Store implements domain.Store on a JSON-lines file
type Store struct {
	mu   sync.RWMutex
	path string
}

// NewStore creates a store backed by path. The file is created on first save.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonl store needs a file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create directory for %q: %w", path, err)
	}
	return &Store{path: path}, nil
}

var _ domain.Store = (*Store)(nil)

// Path returns the backing file
func (s *Store) Path() string {
	return s.path
}

// line is the envelope of every record in the file
type line struct {
	Record string          `json:"record"`
	Data   json.RawMessage `json:"data"`
}

// LoadInvestors retrieves every investor in file order
func (s *Store) LoadInvestors(ctx context.Context) ([]domain.Investor, error) {
	return load[domain.Investor](ctx, s, recordInvestor)
}

// LoadTranches retrieves every tranche in ledger order
func (s *Store) LoadTranches(ctx context.Context) ([]domain.Tranche, error) {
	return load[domain.Tranche](ctx, s, recordTranche)
}

// LoadTransactions retrieves the full log
func (s *Store) LoadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return load[domain.Transaction](ctx, s, recordTransaction)
}

// LoadFeeRecords retrieves every fee record
func (s *Store) LoadFeeRecords(ctx context.Context) ([]domain.FeeRecord, error) {
	return load[domain.FeeRecord](ctx, s, recordFeeRecord)
}

func load[T any](ctx context.Context, s *Store, record string) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0)
	file, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening %q: %w", s.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("%s:%d: could not decode line: %w", s.path, lineNo, err)
		}
		if l.Record != record {
			continue
		}

		var v T
		if err := json.Unmarshal(l.Data, &v); err != nil {
			return nil, fmt.Errorf("%s:%d: could not decode %s: %w", s.path, lineNo, record, err)
		}
		out = append(out, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %q: %w", s.path, err)
	}

	return out, nil
}

// SaveAllData writes every collection to a temporary file in the same
// directory and renames it over the store file
func (s *Store) SaveAllData(ctx context.Context, investors []domain.Investor, tranches []domain.Tranche, transactions []domain.Transaction, feeRecords []domain.FeeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := encode(w, investors, tranches, transactions, feeRecords); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write %q: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("could not sync %q: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close %q: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("could not replace %q: %w", s.path, err)
	}
	return nil
}

func encode(w io.Writer, investors []domain.Investor, tranches []domain.Tranche, transactions []domain.Transaction, feeRecords []domain.FeeRecord) error {
	enc := json.NewEncoder(w)
	for _, v := range investors {
		if err := encodeLine(enc, recordInvestor, v); err != nil {
			return err
		}
	}
	for _, v := range tranches {
		if err := encodeLine(enc, recordTranche, v); err != nil {
			return err
		}
	}
	for _, v := range transactions {
		if err := encodeLine(enc, recordTransaction, v); err != nil {
			return err
		}
	}
	for _, v := range feeRecords {
		if err := encodeLine(enc, recordFeeRecord, v); err != nil {
			return err
		}
	}
	return nil
}

func encodeLine(enc *json.Encoder, record string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", record, err)
	}
	return enc.Encode(line{Record: record, Data: data})
}
