package sim

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockOrdersProcs(t *testing.T) {
	c := NewClock()
	var (
		lock   sync.Mutex
		events []string
		wg     sync.WaitGroup
	)
	record := func(p *Proc, name string) {
		lock.Lock()
		events = append(events, fmt.Sprintf("%s@%v", name, p.Now()))
		lock.Unlock()
	}
	a, b := c.Join(), c.Join()
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer a.Leave()
		a.Delay(10 * time.Microsecond)
		record(a, "a")
		a.Delay(20 * time.Microsecond)
		record(a, "a")
	}()
	go func() {
		defer wg.Done()
		defer b.Leave()
		b.Delay(15 * time.Microsecond)
		record(b, "b")
	}()
	wg.Wait()
	require.Equal(t, []string{"a@10µs", "b@15µs", "a@30µs"}, events)
	require.Equal(t, 30*time.Microsecond, c.Now())
}

func TestClockClose(t *testing.T) {
	c := NewClock()
	p, other := c.Join(), c.Join()
	done := make(chan struct{})
	go func() {
		p.Delay(time.Second)
		close(done)
	}()
	c.Close()
	<-done
	other.Delay(time.Hour)
	require.True(t, c.Now() < time.Second)
}

func TestLineDecay(t *testing.T) {
	c := NewClock()
	p := c.Join()
	defer p.Leave()
	line := NewLine(c, 4*time.Microsecond)
	a, b := line.Pin(), line.Pin()

	require.False(t, a.Sample())
	a.Drive()
	require.True(t, b.Sample())
	p.Delay(10 * time.Microsecond)
	a.Release()
	require.True(t, b.Sample())
	p.Delay(3 * time.Microsecond)
	require.True(t, b.Sample())
	p.Delay(1 * time.Microsecond)
	require.False(t, b.Sample())
	require.EqualValues(t, 1, line.Edges())
}

func TestLineWiredOr(t *testing.T) {
	c := NewClock()
	p := c.Join()
	defer p.Leave()
	line := NewLine(c, 0)
	a, b := line.Pin(), line.Pin()
	a.Drive()
	b.Drive()
	a.Release()
	require.True(t, line.Level())
	b.Release()
	require.False(t, line.Level())
	b.Release()
	require.False(t, line.Level())
}
