package scene

// SceneBuilderOption is a functional option for configuring a Scene.
type SceneBuilderOption func(*sceneImpl)

// WithSpheres replaces the default starting sphere collection.
//
// Parameters:
//   - spheres: the initial spheres
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSpheres(spheres ...Sphere) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.spheres = spheres
	}
}

// WithMaterials replaces the default starting material collection.
//
// Parameters:
//   - materials: the initial materials
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaterials(materials ...Material) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.materials = materials
	}
}

// WithEncodeWorkers overrides the worker count used for the parallel staging
// encode of large scenes. Values <= 0 keep the default (NumCPU - 1).
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEncodeWorkers(workers int) SceneBuilderOption {
	return func(s *sceneImpl) {
		if workers > 0 {
			s.encodeWorkers = workers
		}
	}
}
