package procpool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// TestMain turns the test binary into its own worker process.
func TestMain(m *testing.M) {
	if IsWorker() {
		if err := Serve(os.Stdin, os.Stdout, testHandler); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func testHandler(job Job) (float64, error) {
	switch job.Integrand {
	case "sum":
		return job.Lower + job.Upper + float64(job.Samples), nil
	case "nan":
		return math.NaN(), nil
	case "env":
		return strconv.ParseFloat(os.Getenv("QUADPOOL_TEST_VALUE"), 64)
	case "fail":
		return 0, errors.New("handler refused job")
	case "crash":
		fmt.Fprintln(os.Stderr, "worker is going down")
		os.Exit(3)
	case "garbage":
		fmt.Fprint(os.Stdout, "not json")
		os.Exit(0)
	case "slow":
		time.Sleep(10 * time.Second)
		return 0, nil
	}
	return 0, fmt.Errorf("unknown integrand %q", job.Integrand)
}

func jobs(integrand string, n int) []Job {
	out := make([]Job, n)
	for i := range out {
		out[i] = Job{
			Index:     i,
			Integrand: integrand,
			Lower:     float64(i),
			Upper:     float64(i + 1),
			Samples:   10,
		}
	}
	return out
}

func newPool(t *testing.T, opts ...Option) *Pool {
	t.Helper()
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestPool_Dispatch_BasicFunctionality(t *testing.T) {
	p := newPool(t)

	replies, err := p.Dispatch(context.Background(), jobs("sum", 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(replies) != 4 {
		t.Fatalf("expected 4 replies, got %d", len(replies))
	}

	for i, r := range replies {
		if r.Index != i {
			t.Errorf("reply %d has index %d", i, r.Index)
		}
		want := float64(i) + float64(i+1) + 10
		if r.Value() != want {
			t.Errorf("reply %d: expected %v, got %v", i, want, r.Value())
		}
	}
}

func TestPool_Dispatch_SortsByIndex(t *testing.T) {
	p := newPool(t)

	in := jobs("sum", 3)
	in[0], in[2] = in[2], in[0]

	replies, err := p.Dispatch(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, r := range replies {
		if r.Index != i {
			t.Errorf("position %d holds index %d", i, r.Index)
		}
	}
}

func TestPool_Dispatch_PreservesNaN(t *testing.T) {
	p := newPool(t)

	replies, err := p.Dispatch(context.Background(), jobs("nan", 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(replies[0].Value()) {
		t.Errorf("expected NaN, got %v", replies[0].Value())
	}
}

func TestPool_Dispatch_WithEnv(t *testing.T) {
	p := newPool(t, WithEnv("QUADPOOL_TEST_VALUE=2.5"))

	replies, err := p.Dispatch(context.Background(), jobs("env", 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range replies {
		if r.Value() != 2.5 {
			t.Errorf("expected 2.5, got %v", r.Value())
		}
	}
}

func TestPool_Dispatch_Crash(t *testing.T) {
	p := newPool(t)

	replies, err := p.Dispatch(context.Background(), jobs("crash", 2))
	if !errors.Is(err, ErrCrash) {
		t.Fatalf("expected ErrCrash, got %v", err)
	}
	if replies != nil {
		t.Errorf("expected no replies, got %v", replies)
	}

	var werr *WorkerError
	if !errors.As(err, &werr) {
		t.Fatalf("expected *WorkerError, got %T", err)
	}
	if werr.Phase != "wait" {
		t.Errorf("expected phase wait, got %q", werr.Phase)
	}
	if !strings.Contains(werr.Stderr, "worker is going down") {
		t.Errorf("expected captured stderr, got %q", werr.Stderr)
	}
}

func TestPool_Dispatch_OneCrashFailsWholeBatch(t *testing.T) {
	p := newPool(t)

	in := jobs("slow", 3)
	in[1].Integrand = "crash"

	start := time.Now()
	_, err := p.Dispatch(context.Background(), in)
	if !errors.Is(err, ErrCrash) {
		t.Fatalf("expected ErrCrash, got %v", err)
	}

	// siblings are killed rather than waited for
	if elapsed := time.Since(start); elapsed > 8*time.Second {
		t.Errorf("expected slow siblings to be killed, took %v", elapsed)
	}
}

func TestPool_Dispatch_HandlerError(t *testing.T) {
	p := newPool(t)

	_, err := p.Dispatch(context.Background(), jobs("fail", 1))
	if !errors.Is(err, ErrCrash) {
		t.Fatalf("expected ErrCrash, got %v", err)
	}
	if !strings.Contains(err.Error(), "handler refused job") {
		t.Errorf("expected handler message, got %v", err)
	}
}

func TestPool_Dispatch_GarbageReply(t *testing.T) {
	p := newPool(t)

	_, err := p.Dispatch(context.Background(), jobs("garbage", 1))
	if !errors.Is(err, ErrCrash) {
		t.Fatalf("expected ErrCrash, got %v", err)
	}

	var werr *WorkerError
	if errors.As(err, &werr) && werr.Phase != "reply" {
		t.Errorf("expected phase reply, got %q", werr.Phase)
	}
}

func TestPool_Dispatch_SpawnFailure(t *testing.T) {
	p := newPool(t, WithExecutable("/nonexistent/quadpool-worker"))

	_, err := p.Dispatch(context.Background(), jobs("sum", 2))
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("expected ErrSpawn, got %v", err)
	}

	var werr *WorkerError
	if !errors.As(err, &werr) {
		t.Fatalf("expected *WorkerError, got %T", err)
	}
	if werr.Phase != "spawn" {
		t.Errorf("expected phase spawn, got %q", werr.Phase)
	}
}

func TestPool_Dispatch_SpawnRate(t *testing.T) {
	p := newPool(t, WithSpawnRate(20, 1))

	start := time.Now()
	if _, err := p.Dispatch(context.Background(), jobs("sum", 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// burst 1 at 20/sec: the third spawn waits for two 50ms refills
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("expected throttled spawning, took %v", elapsed)
	}
}

func TestPool_Dispatch_ContextCancelled(t *testing.T) {
	p := newPool(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := p.Dispatch(ctx, jobs("slow", 2))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestServe_RoundTrip(t *testing.T) {
	var in, out bytes.Buffer
	job := Job{Index: 7, Integrand: "sum", Lower: 1, Upper: 2, Samples: 3}
	if err := writeJob(&in, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Serve(&in, &out, func(got Job) (float64, error) {
		if got != job {
			t.Errorf("expected job %+v, got %+v", job, got)
		}
		return 0.1 + 0.2, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := readReply(out.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Index != 7 || reply.Value() != 0.1+0.2 {
		t.Errorf("unexpected reply %+v", reply)
	}
}

func TestServe_HandlerErrorGoesIntoReply(t *testing.T) {
	var in, out bytes.Buffer
	_ = writeJob(&in, Job{Index: 1})

	err := Serve(&in, &out, func(Job) (float64, error) {
		return 0, errors.New("nope")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, _ := readReply(out.Bytes())
	if reply.Error != "nope" {
		t.Errorf("expected error in reply, got %+v", reply)
	}
}

func TestServe_BadInput(t *testing.T) {
	var out bytes.Buffer
	err := Serve(strings.NewReader("{"), &out, func(Job) (float64, error) {
		t.Fatal("handler must not run")
		return 0, nil
	})
	if err == nil {
		t.Fatal("expected decode error, got nil")
	}
}
