package scene

import (
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/prism-render/prism/common"
)

// encodeParallelThreshold is the primitive count above which the per-frame
// staging encode is split across the worker pool. Below it, the chunking
// overhead exceeds the encode cost.
const encodeParallelThreshold = 4096

// Sphere is a renderable primitive referencing a material by index.
// MaterialIndex must be < the scene's material count at render time; this is
// a documented precondition, not a checked invariant — an out-of-range index
// produces an undefined visual result, not an error.
type Sphere struct {
	// Position is the sphere center in world space.
	Position [3]float32
	// Radius is the sphere radius in world units.
	Radius float32
	// MaterialIndex is the index into the scene's material list.
	MaterialIndex uint32
}

// Material describes how a surface scatters and emits light.
type Material struct {
	// Albedo is the unlit, diffuse color component.
	Albedo [3]float32
	// Roughness is how much light scatters on hit: 0 = mirror-like,
	// 1 = fully diffuse. Expected range [0, 1].
	Roughness float32
	// EmissionColor is the color this material emits.
	EmissionColor [3]float32
	// EmissionStrength scales the emission. Expected range [0, 1].
	EmissionStrength float32
}

// sceneImpl is the implementation of the Scene interface.
type sceneImpl struct {
	mu *sync.Mutex

	spheres   []Sphere
	materials []Material

	// Structural dirtiness: set when a collection grows, never on in-place
	// field edits — those are picked up by the unconditional per-frame upload.
	spheresDirty   bool
	materialsDirty bool

	// Staging slices reused each frame for the GPU layout encode.
	sphereStaging   []GPUSphere
	materialStaging []GPUMaterial

	// encodePool runs the chunked staging encode for large scenes. Workers
	// persist across frames, mirroring the per-frame CPU prep phase pattern.
	encodePool    worker.DynamicWorkerPool
	encodeWorkers int
}

// Scene is the mutable store of primitives and materials being rendered.
// Collections only grow; structural growth is tracked separately from
// in-place field edits so the render orchestrator knows when GPU buffers
// must be reallocated and the scene bind group rebuilt.
//
// Precondition: at least one material must exist before any sphere
// referencing material index 0 renders correctly. The store does not
// validate this.
type Scene interface {
	// AddSphere appends a sphere and marks the sphere collection
	// structurally dirty. Growth is unbounded; capping scene size is a
	// caller responsibility.
	//
	// Parameters:
	//   - s: the sphere to append
	AddSphere(s Sphere)

	// AddMaterial appends a material and marks the material collection
	// structurally dirty.
	//
	// Parameters:
	//   - m: the material to append
	AddMaterial(m Material)

	// Spheres returns the live sphere slice for in-place field edits
	// (e.g. dragging a position slider). Edits through this view do NOT
	// touch the dirty flags — content changes are picked up by the
	// unconditional per-frame upload.
	//
	// Returns:
	//   - []Sphere: the live sphere slice
	Spheres() []Sphere

	// Materials returns the live material slice for in-place field edits.
	// Same dirty-flag semantics as Spheres.
	//
	// Returns:
	//   - []Material: the live material slice
	Materials() []Material

	// SphereCount returns the number of spheres in the store.
	//
	// Returns:
	//   - int: the sphere count
	SphereCount() int

	// MaterialCount returns the number of materials in the store.
	//
	// Returns:
	//   - int: the material count
	MaterialCount() int

	// TakeDirty returns the structural dirty flags and clears them.
	// When either flag is true the caller must reallocate the matching GPU
	// buffer to the new size before the next upload and rebuild any bind
	// group referencing it.
	//
	// Returns:
	//   - spheresDirty: true if the sphere collection grew since last call
	//   - materialsDirty: true if the material collection grew since last call
	TakeDirty() (spheresDirty, materialsDirty bool)

	// EncodeSpheres refreshes the sphere staging buffer from the current
	// collection and returns it as raw bytes in GPU layout. The returned
	// slice is reused across calls — upload it before the next encode.
	//
	// Returns:
	//   - []byte: the encoded sphere data (SphereCount * 32 bytes)
	EncodeSpheres() []byte

	// EncodeMaterials refreshes the material staging buffer from the current
	// collection and returns it as raw bytes in GPU layout. The returned
	// slice is reused across calls — upload it before the next encode.
	//
	// Returns:
	//   - []byte: the encoded material data (MaterialCount * 32 bytes)
	EncodeMaterials() []byte
}

var _ Scene = &sceneImpl{}

// NewScene creates a new Scene with the provided options. Unless overridden,
// the store starts with the default single-sphere scene: one sphere at the
// origin referencing one matte purple material.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &sceneImpl{
		mu: &sync.Mutex{},
		spheres: []Sphere{
			{Position: [3]float32{0, 0, 0}, Radius: 0.5, MaterialIndex: 0},
		},
		materials: []Material{
			{Albedo: [3]float32{0.6, 0.2, 0.7}, Roughness: 0.2},
		},
		encodeWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the encode pool after options so WithEncodeWorkers can
	// override the default worker count.
	s.encodePool = worker.NewDynamicWorkerPool(s.encodeWorkers, 64, 1*time.Second)

	return s
}

func (s *sceneImpl) AddSphere(sp Sphere) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spheres = append(s.spheres, sp)
	s.spheresDirty = true
}

func (s *sceneImpl) AddMaterial(m Material) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials = append(s.materials, m)
	s.materialsDirty = true
}

func (s *sceneImpl) Spheres() []Sphere {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spheres
}

func (s *sceneImpl) Materials() []Material {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.materials
}

func (s *sceneImpl) SphereCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spheres)
}

func (s *sceneImpl) MaterialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.materials)
}

func (s *sceneImpl) TakeDirty() (spheresDirty, materialsDirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spheresDirty = s.spheresDirty
	materialsDirty = s.materialsDirty
	s.spheresDirty = false
	s.materialsDirty = false
	return spheresDirty, materialsDirty
}

func (s *sceneImpl) EncodeSpheres() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cap(s.sphereStaging) < len(s.spheres) {
		s.sphereStaging = make([]GPUSphere, len(s.spheres))
	}
	s.sphereStaging = s.sphereStaging[:len(s.spheres)]

	encodeChunked(s.encodePool, len(s.spheres), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			sp := &s.spheres[i]
			s.sphereStaging[i] = GPUSphere{
				Position:      [4]float32{sp.Position[0], sp.Position[1], sp.Position[2], 0},
				Radius:        sp.Radius,
				MaterialIndex: sp.MaterialIndex,
			}
		}
	})

	return common.SliceToBytes(s.sphereStaging)
}

func (s *sceneImpl) EncodeMaterials() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cap(s.materialStaging) < len(s.materials) {
		s.materialStaging = make([]GPUMaterial, len(s.materials))
	}
	s.materialStaging = s.materialStaging[:len(s.materials)]

	encodeChunked(s.encodePool, len(s.materials), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			m := &s.materials[i]
			s.materialStaging[i] = GPUMaterial{
				Albedo:           m.Albedo,
				Roughness:        m.Roughness,
				EmissionColor:    m.EmissionColor,
				EmissionStrength: m.EmissionStrength,
			}
		}
	})

	return common.SliceToBytes(s.materialStaging)
}

// encodeChunked runs encode over [0, count) — inline for small scenes,
// split into per-worker chunks on the pool for large ones. A WaitGroup
// provides the per-frame barrier since the pool outlives the frame.
func encodeChunked(pool worker.DynamicWorkerPool, count int, encode func(lo, hi int)) {
	if count < encodeParallelThreshold || pool == nil {
		encode(0, count)
		return
	}

	chunks := runtime.NumCPU()
	chunkSize := (count + chunks - 1) / chunks

	var wg sync.WaitGroup
	for taskID, lo := 0, 0; lo < count; taskID, lo = taskID+1, lo+chunkSize {
		hi := min(lo+chunkSize, count)
		wg.Add(1)
		loCap, hiCap := lo, hi
		pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				encode(loCap, hiCap)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// RandomSphere creates a sphere with a random position in [-5, 5) on each
// axis, a random radius in [0.3, 1.2), and a random material index below
// materialCount (0 when no materials exist yet).
//
// Parameters:
//   - materialCount: the number of materials available in the scene
//
// Returns:
//   - Sphere: the randomized sphere
func RandomSphere(materialCount int) Sphere {
	var materialIndex uint32
	if materialCount > 0 {
		materialIndex = uint32(rand.IntN(materialCount))
	}
	return Sphere{
		Position: [3]float32{
			rand.Float32()*10 - 5,
			rand.Float32()*10 - 5,
			rand.Float32()*10 - 5,
		},
		Radius:        rand.Float32()*0.9 + 0.3,
		MaterialIndex: materialIndex,
	}
}
