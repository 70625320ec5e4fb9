package sigma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authConfig = `
logsources:
    auth:
        category: authentication
        index: auth-idx
`

// logonRule is the AND of an EventID equality and a LogonType list.
func logonRule() *Rule {
	return &Rule{
		Condition: And{Children: []Node{
			MapItem{Key: "EventID", Value: Scalar("4624")},
			MapItem{Key: "LogonType", Value: ListValue{"2", "10"}},
		}},
		LogSource: LogSource{Category: "authentication"},
	}
}

func TestGenerate(t *testing.T) {
	b := newTestBackend(t, authConfig)

	query, err := b.Generate(logonRule())
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT UTF8(payload) as search_payload from events where EventID='4624' and (LogonType = '2' or LogonType = '10')",
		query)
}

func TestGenerate_WithAggregation(t *testing.T) {
	b := newTestBackend(t, authConfig)

	rule := logonRule()
	rule.Aggregation = &AggregationSpec{
		Function:     AggCount,
		Field:        "EventID",
		GroupField:   "User",
		ComparisonOp: ">",
		Threshold:    "5",
	}

	query, err := b.Generate(rule)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(EventID) as agg_val from events where EventID='4624' and (LogonType = '2' or LogonType = '10') group by User having agg_val > 5",
		query)
}

func TestGenerate_NearAggregationFails(t *testing.T) {
	b := newTestBackend(t, authConfig)

	rule := logonRule()
	rule.Aggregation = &AggregationSpec{
		Function:     AggNear,
		Field:        "EventID",
		ComparisonOp: ">",
		Threshold:    "5",
	}

	_, err := b.Generate(rule)
	var target *UnsupportedAggregationError
	require.ErrorAs(t, err, &target)
}

func TestGenerate_FlowLogSource(t *testing.T) {
	b := newTestBackend(t, `
logsources:
    netflow:
        category: network_connection
        index: netflow-idx
`)

	query, err := b.Generate(&Rule{
		Condition: MapItem{Key: "DestinationPort", Value: Scalar("4444")},
		LogSource: LogSource{Category: "network_connection"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT UTF8(payload) as search_payload from flows where DestinationPort='4444'", query)
}

func TestGenerate_LogSourceConditions(t *testing.T) {
	b := newTestBackend(t, `
logsources:
    auth:
        category: authentication
        index: auth-idx
        conditions:
            channel: Security
`)

	query, err := b.Generate(&Rule{
		Condition: MapItem{Key: "EventID", Value: Scalar("4624")},
		LogSource: LogSource{Category: "authentication"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT UTF8(payload) as search_payload from events where channel='Security' and EventID='4624'",
		query)
}

func TestGenerate_LogSourceConditionsKeepPrecedence(t *testing.T) {
	// An OR-merged logsource condition and an OR rule predicate both get
	// grouped before being AND-combined.
	b := newTestBackend(t, `
logsourcemerging: or
logsources:
    auth:
        category: authentication
        conditions:
            channel: Security
    windows-auth:
        category: authentication
        product: windows
        conditions:
            eventtype: auth
`)

	query, err := b.Generate(&Rule{
		Condition: Or{Children: []Node{
			MapItem{Key: "EventID", Value: Scalar("4624")},
			MapItem{Key: "EventID", Value: Scalar("4625")},
		}},
		LogSource: LogSource{Category: "authentication", Product: "windows"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT UTF8(payload) as search_payload from events where (channel='Security' or eventtype='auth') and (EventID='4624' or EventID='4625')",
		query)
}

func TestGenerate_FieldMapping(t *testing.T) {
	b := newTestBackend(t, `
fieldmappings:
    EventID: event_id
logsources:
    auth:
        category: authentication
        index: auth-idx
`)

	query, err := b.Generate(&Rule{
		Condition: MapItem{Key: "EventID", Value: Scalar("4624")},
		LogSource: LogSource{Category: "authentication"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT UTF8(payload) as search_payload from events where event_id='4624'", query)
}

func TestGenerate_TranslationErrorYieldsNoQuery(t *testing.T) {
	b := newTestBackend(t, authConfig)

	query, err := b.Generate(&Rule{
		Condition: MapItem{Key: "EventID", Value: Not{Child: Scalar("x")}},
		LogSource: LogSource{Category: "authentication"},
	})
	require.Error(t, err)
	assert.Empty(t, query)

	// A failed rule does not corrupt the backend for the next one.
	good, err := b.Generate(logonRule())
	require.NoError(t, err)
	assert.NotEmpty(t, good)
}

func TestGenerate_Concurrent(t *testing.T) {
	b := newTestBackend(t, authConfig)

	want, err := b.Generate(logonRule())
	require.NoError(t, err)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 50; j++ {
				got, err := b.Generate(logonRule())
				if err != nil {
					done <- err
					return
				}
				if got != want {
					done <- assert.AnError
					return
				}
			}
			done <- nil
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
