package core

// Runner is the delegation seam between tools and agents. A delegation tool
// depends only on this interface; agents implement it. Run blocks until the
// loop reaches a terminal ActionResult. The returned error is reserved for
// fatal conditions (protocol violations, model transport failures); every
// controlled outcome, including budget exhaustion, is an ActionResult.
type Runner interface {
	Name() string
	Run(rc *RunContext) (ActionResult, error)
}
