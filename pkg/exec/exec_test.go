package exec

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is re-executed as a child by the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	code, _ := strconv.Atoi(os.Getenv("HELPER_EXIT_CODE"))
	fmt.Print(os.Getenv("HELPER_STDOUT"))
	os.Exit(code)
}

func TestExitCode(t *testing.T) {
	for _, want := range []int{0, 3} {
		cmd := DefaultCommander{}.CommandContext(context.Background(), os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_EXIT_CODE="+strconv.Itoa(want))
		got, err := ExitCode(cmd)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestExitCode_StartFailure(t *testing.T) {
	cmd := DefaultCommander{}.CommandContext(context.Background(), "etlrun-definitely-missing-binary")
	got, err := ExitCode(cmd)
	assert.Error(t, err)
	assert.Equal(t, -1, got)
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `'it'\''s'`, QuoteSh("it's"))
	assert.Equal(t, `"say ""hi"""`, QuoteCmd(`say "hi"`))
	assert.Equal(t, "python -m pip install", JoinArgs([]string{"python", "-m", "pip", "install"}))
	assert.Equal(t, Quote("my dir"), JoinArgs([]string{"my dir"}))
}
