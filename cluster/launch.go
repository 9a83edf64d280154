package cluster

import (
	"os"

	"github.com/juju/errors"
	"github.com/spf13/viper"
	"github.com/weiihann/matbench/backend"
)

// WorkerCommand is the hidden subcommand a child process runs to serve
// one rank.
const WorkerCommand = "cluster-worker"

// EnvPrefix namespaces the launch environment variables, e.g.
// MATBENCH_PROCS and MATBENCH_RANK.
const EnvPrefix = "MATBENCH"

// RankEnv carries a child's rank in its environment.
const RankEnv = EnvPrefix + "_RANK"

// Env is the launch environment of a cluster process.
type Env struct {
	Procs int
	Rank  int
}

// LoadEnv reads the process count and rank from the environment. The
// process count defaults to the number of logical cores.
func LoadEnv() (Env, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault("procs", backend.AvailableCores())
	v.SetDefault("rank", 0)

	env := Env{
		Procs: v.GetInt("procs"),
		Rank:  v.GetInt("rank"),
	}
	if env.Procs <= 0 {
		return env, errors.NotValidf("%s_PROCS=%q", EnvPrefix, v.GetString("procs"))
	}

	return env, nil
}

// CommandConfig holds the resolved command, extra arguments, and
// environment variables needed to start a worker process.
type CommandConfig struct {
	Binary    string
	ExtraArgs []string
	Env       []string
}

// ResolveBinary returns the path of the running executable. Workers are
// the same binary started with WorkerCommand.
func ResolveBinary() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", errors.Annotate(err, "resolve worker binary")
	}

	return path, nil
}

// WrapCommand returns the exec configuration for a worker started from
// binPath.
func WrapCommand(binPath string) CommandConfig {
	return CommandConfig{
		Binary:    binPath,
		ExtraArgs: []string{WorkerCommand},
	}
}
