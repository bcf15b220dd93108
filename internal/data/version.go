package data

// set with -ldflags at build time
var (
	Version   string
	GitCommit string
	GitBranch string
)
