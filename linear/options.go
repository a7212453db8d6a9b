package linear

// Option is a function that configures GradientDescent
type Option func(*GradientDescent)

// WithIterations sets the fixed number of batch updates
func WithIterations(n int) Option {
	return func(g *GradientDescent) {
		g.iterations = n
	}
}

// WithLearningRate sets the step size η
func WithLearningRate(lr float64) Option {
	return func(g *GradientDescent) {
		g.learningRate = lr
	}
}

// WithObserver registers a progress observer called at every checkpoint
func WithObserver(o Observer) Option {
	return func(g *GradientDescent) {
		g.observer = o
	}
}
