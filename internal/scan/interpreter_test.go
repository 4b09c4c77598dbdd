package scan

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixedSource(id int) Source {
	return SourceFunc(func(ctx context.Context, decoded string) (Availability, error) {
		return FromDraw(id), nil
	})
}

func TestInterpreter_Interpret(t *testing.T) {
	testCases := []struct {
		name     string
		source   Source
		result   Result
		expected Outcome
	}{
		{
			name:     "Even draw is available",
			source:   fixedSource(4),
			result:   Result{DecodedText: "locker://A/1"},
			expected: Outcome{Kind: OutcomeAvailable, Box: 4, Message: "scan succeeded: locker://A/1"},
		},
		{
			name:     "Odd draw is unavailable",
			source:   fixedSource(7),
			result:   Result{DecodedText: "hello"},
			expected: Outcome{Kind: OutcomeUnavailable, Box: 7, Message: "scan succeeded: hello"},
		},
		{
			name:     "Zero is even",
			source:   fixedSource(0),
			result:   Result{DecodedText: "x"},
			expected: Outcome{Kind: OutcomeAvailable, Box: 0, Message: "scan succeeded: x"},
		},
		{
			name:     "SDK error maps to table",
			source:   fixedSource(4),
			result:   Result{Err: &SDKError{Code: CodePermissionDenied}},
			expected: Outcome{Kind: OutcomeFailed, Code: CodePermissionDenied, Message: "error occurred: insufficient permission, user did not accept"},
		},
		{
			name:     "Wrapped SDK error",
			source:   fixedSource(4),
			result:   Result{Err: fmt.Errorf("host: %w", &SDKError{Code: 12345})},
			expected: Outcome{Kind: OutcomeFailed, Code: 12345, Message: "error occurred: unknown error"},
		},
		{
			name:     "Deadline maps to timeout",
			source:   fixedSource(4),
			result:   Result{Err: context.DeadlineExceeded},
			expected: Outcome{Kind: OutcomeFailed, Code: CodeOperationTimedOut, Message: "error occurred: user operation timed out"},
		},
		{
			name:     "Empty callback",
			source:   fixedSource(4),
			result:   Result{},
			expected: Outcome{Kind: OutcomeNone},
		},
		{
			name: "Lookup failure is an internal error",
			source: SourceFunc(func(ctx context.Context, decoded string) (Availability, error) {
				return Availability{}, errors.New("controller offline")
			}),
			result:   Result{DecodedText: "locker://A/1"},
			expected: Outcome{Kind: OutcomeFailed, Code: CodeInternalError, Message: "error occurred: internal error"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := NewInterpreter(tc.source, LocaleEnglish, nil)
			assert.Equal(t, tc.expected, in.Interpret(context.Background(), tc.result))
		})
	}
}

func TestRandomSource_Range(t *testing.T) {
	src := NewRandomSource(30)
	for i := 0; i < 500; i++ {
		a, err := src.Lookup(context.Background(), "x")
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, a.Box, 0)
		assert.Less(t, a.Box, 30)
		assert.Equal(t, a.Box%2 == 0, a.Available)
	}
}

func TestRandomSource_UsesDraw(t *testing.T) {
	src := NewRandomSource(30)
	src.intn = func(n int) int {
		assert.Equal(t, 30, n)
		return 7
	}
	a, err := src.Lookup(context.Background(), "x")
	assert.NoError(t, err)
	assert.Equal(t, Availability{Box: 7, Available: false}, a)
}
