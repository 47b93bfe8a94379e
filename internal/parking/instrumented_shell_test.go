package parking

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runShell(t *testing.T, garage *Garage, script string) string {
	t.Helper()

	var out bytes.Buffer
	shell := NewInstrumentedShell(garage, strings.NewReader(script), &out)
	shell.Run(context.Background())
	return out.String()
}

func TestShellSession(t *testing.T) {
	h := newTelemetryHarness(t)
	clock := &testClock{now: time.Date(2024, 7, 1, 9, 0, 0, 0, time.Local)}
	garage := NewGarage(h.provider, discardLogger(), WithClock(clock.Now))

	out := runShell(t, garage, `
create_parking_lot 6 2
park 0 1 car ABC123
park 1 2 truck TRK9
park 0 1 motorcycle DUP
display
view 0 1
available 0 1
available 0 0
find TRK9
`)

	assert.Equal(t, `Created a parking lot with 6 spaces in 2 rows of 3
Vehicle Parked Successfully!
Vehicle Parked Successfully!
Error: Space is not available or already occupied!
SPOTS AVAILABLE: 4
|[ ] [c] [ ]|
|[ ] [ ] [t]|
Vehicle Type: Car
Plate: ABC123
Entry Time: 07-01-2024 09:00 AM
false
true
1 2
`, out)

	clock.Advance(90 * time.Minute)
	out = runShell(t, garage, "remove 0 1\nremove 0 1\nview 0 1\n")

	assert.Equal(t, `Vehicle ABC123 removed. Total Fare: $7.00
Error: No vehicle in the selected space!
Error: No vehicle in the selected space!
`, out)
}

func TestShellWithoutLot(t *testing.T) {
	h := newTelemetryHarness(t)
	garage := NewGarage(h.provider, discardLogger())

	out := runShell(t, garage, "display\npark 0 0 car X\nremove 0 0\nfind X\n")

	assert.Equal(t, strings.Repeat("Parking lot not created\n", 4), out)
}

func TestShellArgumentErrors(t *testing.T) {
	h := newTelemetryHarness(t)
	garage := NewGarage(h.provider, discardLogger())

	out := runShell(t, garage, `create_parking_lot 4
create_parking_lot four 2
create_parking_lot 0 2
create_parking_lot 4 2
park 0 0 bus X
park a 0 car X
park 0 9 car X
remove 0
fly
`)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "Usage: create_parking_lot <total_spaces> <rows>", lines[0])
	assert.Equal(t, "Invalid total_spaces", lines[1])
	assert.Contains(t, lines[2], "invalid parking lot configuration")
	assert.Equal(t, "Created a parking lot with 4 spaces in 2 rows of 2", lines[3])
	assert.Equal(t, "Invalid vehicle type", lines[4])
	assert.Equal(t, "Invalid row", lines[5])
	assert.Equal(t, "Error: Space is not available or already occupied!", lines[6])
	assert.Equal(t, "Usage: remove <row> <space>", lines[7])
	assert.Equal(t, "Unknown command: fly", lines[8])
}

func TestShellLoadConfig(t *testing.T) {
	h := newTelemetryHarness(t)
	garage := NewGarage(h.provider, discardLogger())

	path := filepath.Join(t.TempDir(), "lot.txt")
	require.NoError(t, os.WriteFile(path, []byte("total_spaces = 10\nrows = 3\n"), 0o644))

	out := runShell(t, garage, "load_config "+path+"\ndisplay\n")

	assert.Equal(t, `Created a parking lot with 10 spaces in 3 rows of 3
SPOTS AVAILABLE: 10
|[ ] [ ] [ ]|
|[ ] [ ] [ ]|
|[ ] [ ] [ ]|
`, out)
}

func TestShellStopsAtExit(t *testing.T) {
	h := newTelemetryHarness(t)
	garage := NewGarage(h.provider, discardLogger())

	out := runShell(t, garage, "create_parking_lot 2 1\nexit\ndisplay\n")

	assert.Equal(t, "Created a parking lot with 2 spaces in 1 rows of 2\n", out)
}
