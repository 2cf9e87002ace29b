package tailer

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrigger_IgnoredWhenStopped(t *testing.T) {
	tl, path, c := newTestTailer(t)
	appendFile(t, path, header(0, "INFO", "a")+header(1, "INFO", "b"))

	tl.trigger(TriggerPoll)
	assert.Equal(t, int64(0), tl.CurrentOffset())
	assert.Empty(t, c.messages())
}

func TestTrigger_ConcurrentTriggersReadOnce(t *testing.T) {
	tl, path, c := newTestTailer(t)
	tl.opts.PollInterval = time.Hour
	tl.opts.FlushAfter = time.Hour
	require.NoError(t, tl.Start())
	defer tl.Stop()

	var content string
	for i := 0; i < 20; i++ {
		content += header(i, "INFO", "burst")
	}
	appendFile(t, path, content)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tl.trigger(TriggerPoll)
		}()
	}
	wg.Wait()

	// Whatever the interleaving, every byte is read exactly once.
	assert.Eventually(t, func() bool {
		return tl.CurrentOffset() == int64(len(content))
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, c.messages(), 19)
}

func TestDrain_IgnoresSiblingFiles(t *testing.T) {
	tl, path, c := newTestTailer(t)
	tl.opts.PollInterval = time.Hour
	tl.opts.FlushAfter = time.Hour
	require.NoError(t, tl.Start())
	defer tl.Stop()

	sibling := filepath.Join(filepath.Dir(path), "other.log")
	require.NoError(t, os.WriteFile(sibling, []byte(header(0, "INFO", "x")+header(1, "INFO", "y")), 0644))
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, c.messages())

	appendFile(t, path, header(2, "INFO", "mine")+header(3, "INFO", "next"))
	assert.Eventually(t, func() bool {
		return len(c.messages()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"mine"}, c.messages())
}
