package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderHeaderFirst(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"Roll Number", "Name", "Attended"},
		Rows: [][]string{
			{"25MX114", "KAVIN M", "Yes"},
			{"25MX115", "Doe, Jane", "No"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Roll Number,Name,Attended\n25MX114,KAVIN M,Yes\n25MX115,\"Doe, Jane\",No\n", string(out))
}

func TestCSVRenderRejectsBadShape(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{Headers: []string{"a", "b"}, Rows: [][]string{{"only"}}})
	assert.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(Dataset{
		Title:   "Code Sprint",
		Headers: []string{"Roll Number", "Name", "Email", "Mobile", "Department", "Year", "Registered At", "Attended"},
		Rows:    [][]string{{"25MX114", "KAVIN M", "25mx114@psgtech.ac.in", "9876543210", "MCA", "1", "15/10/2026, 9:30:00 am", "No"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(Dataset{Headers: []string{"A", "Longer header"}, Rows: [][]string{{"x", "y"}}}, 100)
	require.Len(t, widths, 2)
	assert.InDelta(t, 100, widths[0]+widths[1], 0.001)
	assert.Less(t, widths[0], widths[1])
}
