package inference

// completed is a Result whose work already finished.
type completed struct {
	err error
}

func (c completed) Wait() error { return c.err }

// Completed returns a Result for a prediction that ran synchronously.
func Completed(err error) Result {
	return completed{err: err}
}

// pending is a Result backed by a goroutine running the prediction.
type pending struct {
	done    chan struct{}
	err     error
	release func()
}

// Pending starts run in the background and returns a Result whose Wait
// blocks until run returns. release, if not nil, is called exactly once
// after run finishes and before Wait returns.
func Pending(run func() error, release func()) Result {
	p := &pending{
		done:    make(chan struct{}),
		release: release,
	}
	go func() {
		defer close(p.done)
		p.err = run()
		if p.release != nil {
			p.release()
		}
	}()
	return p
}

func (p *pending) Wait() error {
	<-p.done
	return p.err
}
