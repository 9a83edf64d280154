package cluster

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/juju/errors"
	"github.com/weiihann/matbench/log"
	"go.uber.org/zap"
)

// Peer is a launched rank. The request is written to In, which must be
// closed afterwards; the response is read from Out.
type Peer struct {
	Rank int
	In   io.WriteCloser
	Out  io.Reader
	wait func() error
}

// Wait blocks until the rank has exited and returns its failure, if any.
func (p *Peer) Wait() error {
	return p.wait()
}

// Launcher starts the worker for one rank.
type Launcher interface {
	Launch(ctx context.Context, rank int) (*Peer, error)
}

// ProcessLauncher launches worker ranks as child processes.
type ProcessLauncher struct {
	BinaryPath string
	ExtraArgs  []string
	Env        []string
	Logger     *zap.Logger
}

// NewProcessLauncher creates a ProcessLauncher from a command configuration. Env is
// appended to the inherited environment.
func NewProcessLauncher(cfg CommandConfig) *ProcessLauncher {
	return &ProcessLauncher{
		BinaryPath: cfg.Binary,
		ExtraArgs:  cfg.ExtraArgs,
		Env:        cfg.Env,
		Logger:     log.Logger().With(zap.String("binary", cfg.Binary)),
	}
}

// Launch starts a child process for rank with its stdin and stdout
// connected to the returned Peer.
func (l *ProcessLauncher) Launch(ctx context.Context, rank int) (*Peer, error) {
	cmd := exec.CommandContext(ctx, l.BinaryPath, l.ExtraArgs...)
	cmd.Env = append(os.Environ(), l.Env...)
	cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%d", RankEnv, rank))

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Annotatef(err, "rank %d stdin", rank)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Annotatef(err, "rank %d stdout", rank)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Annotatef(err, "start rank %d", rank)
	}

	l.Logger.Debug("worker started",
		zap.Int("rank", rank),
		zap.Int("pid", cmd.Process.Pid),
	)

	return &Peer{
		Rank: rank,
		In:   stdin,
		Out:  stdout,
		wait: func() error {
			if err := cmd.Wait(); err != nil {
				return errors.Errorf("rank %d failed: %v\nstderr: %s", rank, err, stderr.String())
			}
			return nil
		},
	}, nil
}

// LocalLauncher serves each rank on a goroutine connected through
// in-memory pipes. It speaks the same wire format as child processes.
type LocalLauncher struct{}

// Launch starts Serve for rank on a new goroutine.
func (LocalLauncher) Launch(_ context.Context, rank int) (*Peer, error) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	done := make(chan error, 1)

	go func() {
		err := Serve(inR, outW)
		outW.CloseWithError(err)
		inR.Close()
		done <- err
	}()

	return &Peer{
		Rank: rank,
		In:   inW,
		Out:  outR,
		wait: func() error {
			return errors.Annotatef(<-done, "rank %d", rank)
		},
	}, nil
}
