package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Order column names as they appear in the orders file header.
const (
	ColumnOrderNumber = "Order number"
	ColumnHead        = "Head"
	ColumnBody        = "Body"
	ColumnLegs        = "Legs"
	ColumnAddress     = "Address"
)

var orderColumns = []string{ColumnOrderNumber, ColumnHead, ColumnBody, ColumnLegs, ColumnAddress}

// Order is one row of the orders file.
type Order struct {
	// Number names the order's artifact files, so it may not contain path separators.
	Number  string `validate:"required,excludesall=/\\"`
	Head    int
	Body    int
	Legs    string
	Address string
}

// OrderReader yields orders lazily in file order.
type OrderReader struct {
	file     *os.File
	csv      *csv.Reader
	columns  map[string]int
	line     int
	validate *validator.Validate
}

// OpenOrders opens an orders CSV and checks its header.
func OpenOrders(path string) (*OrderReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open orders file: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(orderColumns)

	header, err := r.Read()
	if err != nil {
		f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s is empty", ErrMalformedOrders, path)
		}
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedOrders, err)
	}

	columns, err := indexColumns(header)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &OrderReader{
		file:     f,
		csv:      r,
		columns:  columns,
		line:     1,
		validate: validator.New(),
	}, nil
}

func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		// Excel exports prepend a BOM to the first cell
		name = strings.TrimPrefix(name, "\ufeff")
		if _, dup := columns[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformedOrders, name)
		}
		columns[name] = i
	}

	for _, want := range orderColumns {
		if _, ok := columns[want]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedOrders, want)
		}
	}

	return columns, nil
}

// Next returns the next order, or io.EOF once the file is exhausted.
func (r *OrderReader) Next() (Order, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Order{}, io.EOF
		}
		return Order{}, fmt.Errorf("%w: %v", ErrMalformedOrders, err)
	}
	r.line++

	order := Order{
		Number:  strings.TrimSpace(record[r.columns[ColumnOrderNumber]]),
		Legs:    strings.TrimSpace(record[r.columns[ColumnLegs]]),
		Address: record[r.columns[ColumnAddress]],
	}

	if order.Head, err = r.intField(record, ColumnHead); err != nil {
		return Order{}, err
	}
	if order.Body, err = r.intField(record, ColumnBody); err != nil {
		return Order{}, err
	}

	if err := r.validate.Struct(order); err != nil {
		return Order{}, fmt.Errorf("%w: line %d: %v", ErrMalformedOrders, r.line, err)
	}

	return order, nil
}

func (r *OrderReader) intField(record []string, column string) (int, error) {
	raw := strings.TrimSpace(record[r.columns[column]])
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %s %q is not an integer", ErrMalformedOrders, r.line, column, raw)
	}
	return v, nil
}

// Close releases the underlying file.
func (r *OrderReader) Close() error {
	return r.file.Close()
}

// ReadAllOrders drains an orders file.
func ReadAllOrders(path string) ([]Order, error) {
	r, err := OpenOrders(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var orders []Order
	for {
		order, err := r.Next()
		if errors.Is(err, io.EOF) {
			return orders, nil
		}
		if err != nil {
			return orders, err
		}
		orders = append(orders, order)
	}
}
