package jinja

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJinjaRenderer_Render(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		args    Context
		want    string
		wantErr bool
	}{
		{
			name:  "plain variables",
			query: "SELECT * FROM {{ table }} WHERE DateKey >= {{ start }}",
			args: Context{
				"table": "dim_date",
				"start": 20160409,
			},
			want: "SELECT * FROM dim_date WHERE DateKey >= 20160409",
		},
		{
			name:  "functions from the context are callable",
			query: "SELECT {{ date_diff('d2.Date', 'd3.Date') }} AS DeliveryDelayDays",
			args: Context{
				"date_diff": func(later, earlier string) string {
					return "DATEDIFF(" + later + ", " + earlier + ")"
				},
			},
			want: "SELECT DATEDIFF(d2.Date, d3.Date) AS DeliveryDelayDays",
		},
		{
			name:  "loops over given slices",
			query: "{% for e in events %}{{ e }}DateKey{% if not loop.last %}, {% endif %}{% endfor %}",
			args: Context{
				"events": []string{"Order", "Delivered"},
			},
			want: "OrderDateKey, DeliveredDateKey",
		},
		{
			name:    "unclosed for loop is reported",
			query:   "{% for e in events %}{{ e }}",
			args:    Context{"events": []string{"Order"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewRenderer(tt.args).Render(tt.query)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestJinjaRenderer_RenderMissingVariable(t *testing.T) {
	t.Parallel()

	r := NewRenderer(Context{"fact_table": "fact_order_items", "dim_date": "dim_date"})

	_, err := r.Render("SELECT COUNT(*) FROM {{ orders_table }}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'orders_table'")
	assert.Contains(t, err.Error(), "dim_date, fact_table")
}
