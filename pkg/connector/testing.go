package connector

import (
	"context"
	"sync"
	"testing"
)

// Fake is an in-memory Connector for tests. Values are keyed by
// "secretName/fieldName" (or just "secretName" when the field is empty).
// It counts fetches per pair so tests can assert laziness.
type Fake struct {
	FakeName string
	Fail     error // returned from every Fetch when set

	mu      sync.Mutex
	values  map[string]string
	fetches map[string]int
}

// NewFake creates a fake connector preloaded with values.
func NewFake(name string, values map[string]string) *Fake {
	if values == nil {
		values = make(map[string]string)
	}
	return &Fake{
		FakeName: name,
		values:   values,
		fetches:  make(map[string]int),
	}
}

func fakeKey(secretName, fieldName string) string {
	if fieldName == "" {
		return secretName
	}
	return secretName + "/" + fieldName
}

// Set adds or replaces a value.
func (f *Fake) Set(secretName, fieldName, value string) {
	f.mu.Lock()
	f.values[fakeKey(secretName, fieldName)] = value
	f.mu.Unlock()
}

// Name implements Connector.
func (f *Fake) Name() string { return f.FakeName }

// Fetch implements Connector.
func (f *Fake) Fetch(ctx context.Context, secretName, fieldName string) (Value, error) {
	if err := ctx.Err(); err != nil {
		return Value{}, UnavailableError{Connector: f.FakeName, Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := fakeKey(secretName, fieldName)
	f.fetches[key]++

	if f.Fail != nil {
		return Value{}, f.Fail
	}
	value, ok := f.values[key]
	if !ok {
		return Value{}, NotFoundError{Connector: f.FakeName, SecretName: secretName, FieldName: fieldName}
	}
	return Value{Data: []byte(value), Source: "fake:" + key}, nil
}

// Validate implements Connector.
func (f *Fake) Validate(ctx context.Context) error {
	if f.Fail != nil {
		return f.Fail
	}
	return nil
}

// Fetches returns how many times the given pair was fetched.
func (f *Fake) Fetches(secretName, fieldName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[fakeKey(secretName, fieldName)]
}

// TotalFetches returns the total number of Fetch calls.
func (f *Fake) TotalFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.fetches {
		total += n
	}
	return total
}

// ContractTest defines a standard test suite all connectors must pass.
type ContractTest struct {
	// CreateConnector creates the connector under test, preloaded so that
	// SecretName/FieldName resolves to WantValue.
	CreateConnector func(t *testing.T) Connector

	SecretName string
	FieldName  string
	WantValue  string

	// MissingSecret is a secret name guaranteed to be absent.
	MissingSecret string

	SkipValidate bool
}

// RunContractTests runs the standard connector contract test suite.
func RunContractTests(t *testing.T, contract ContractTest) {
	t.Run("Contract", func(t *testing.T) {
		t.Run("Name", func(t *testing.T) {
			c := contract.CreateConnector(t)
			if c.Name() == "" {
				t.Error("Connector.Name() returned empty string")
			}
		})

		t.Run("Fetch", func(t *testing.T) {
			c := contract.CreateConnector(t)
			value, err := c.Fetch(context.Background(), contract.SecretName, contract.FieldName)
			if err != nil {
				t.Fatalf("Fetch() error: %v", err)
			}
			if string(value.Data) != contract.WantValue {
				t.Errorf("Fetch() = %q, want %q", value.Data, contract.WantValue)
			}
			if value.Source == "" {
				t.Error("Fetch() returned empty Source")
			}
		})

		t.Run("FetchDeterministic", func(t *testing.T) {
			c := contract.CreateConnector(t)
			first, err := c.Fetch(context.Background(), contract.SecretName, contract.FieldName)
			if err != nil {
				t.Fatalf("first Fetch() error: %v", err)
			}
			second, err := c.Fetch(context.Background(), contract.SecretName, contract.FieldName)
			if err != nil {
				t.Fatalf("second Fetch() error: %v", err)
			}
			if string(first.Data) != string(second.Data) {
				t.Error("Fetch() is not repeatable within one run")
			}
		})

		t.Run("FetchNotFound", func(t *testing.T) {
			c := contract.CreateConnector(t)
			_, err := c.Fetch(context.Background(), contract.MissingSecret, contract.FieldName)
			if !IsNotFound(err) {
				t.Errorf("Fetch() of missing secret = %v, want NotFoundError", err)
			}
		})

		if !contract.SkipValidate {
			t.Run("Validate", func(t *testing.T) {
				c := contract.CreateConnector(t)
				if err := c.Validate(context.Background()); err != nil {
					t.Errorf("Validate() error: %v", err)
				}
			})
		}
	})
}
