package mappings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/statusmirror/internal/daemon"
	"github.com/leefowlercu/statusmirror/internal/topology"
	"github.com/leefowlercu/statusmirror/internal/uptime"
)

func TestPrintTable(t *testing.T) {
	resp := &daemon.MappingsResponse{
		LoopID: "loop-1",
		Mappings: topology.Snapshot{
			{TriggerID: "13500", GroupID: 1, GroupName: "Web", ComponentID: 7, ComponentName: "Frontend"},
			{ServiceID: "4", ComponentID: 8, ComponentName: "Batch"},
		},
		Metrics: []uptime.Binding{{ServiceID: "2", ServiceName: "Web", MetricID: 3}},
	}

	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	require.NoError(t, printTable(cmd, resp))

	out := buf.String()
	assert.Contains(t, out, "Loop: loop-1")
	assert.Regexp(t, `Web\s+Frontend\s+7\s+13500\s+-`, out)
	assert.Regexp(t, `-\s+Batch\s+8\s+-\s+4`, out)
	assert.Regexp(t, `Web\s+2\s+3`, out)
}

func TestRunMappings_JSON(t *testing.T) {
	want := daemon.MappingsResponse{
		LoopID:   "loop-2",
		Mappings: topology.Snapshot{{TriggerID: "1", ComponentID: 1, ComponentName: "API"}},
		Metrics:  []uptime.Binding{},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mappings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	mappingsAddr, mappingsJSON = strings.TrimPrefix(srv.URL, "http://"), true
	t.Cleanup(func() { mappingsAddr, mappingsJSON = "", false })

	buf := new(bytes.Buffer)
	MappingsCmd.SetOut(buf)
	MappingsCmd.SetContext(context.Background())
	require.NoError(t, runMappings(MappingsCmd, nil))

	var got daemon.MappingsResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, want.LoopID, got.LoopID)
	assert.Equal(t, want.Mappings, got.Mappings)
}
