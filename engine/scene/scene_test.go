package scene

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestSceneDefaultContents(t *testing.T) {
	s := NewScene()

	if got := s.SphereCount(); got != 1 {
		t.Errorf("Expected 1 default sphere, got %d", got)
	}
	if got := s.MaterialCount(); got != 1 {
		t.Errorf("Expected 1 default material, got %d", got)
	}

	sp := s.Spheres()[0]
	if sp.Radius != 0.5 || sp.MaterialIndex != 0 {
		t.Errorf("Unexpected default sphere: %+v", sp)
	}
}

func TestSceneTakeDirtyOnGrowth(t *testing.T) {
	s := NewScene()

	// Construction defaults are not growth; the store starts clean.
	if sd, md := s.TakeDirty(); sd || md {
		t.Errorf("Expected clean store at start, got spheres=%v materials=%v", sd, md)
	}

	s.AddSphere(Sphere{Radius: 1})
	sd, md := s.TakeDirty()
	if !sd {
		t.Error("Expected sphere dirty flag after AddSphere")
	}
	if md {
		t.Error("AddSphere should not mark materials dirty")
	}

	// TakeDirty clears: a second call reports clean.
	if sd, md := s.TakeDirty(); sd || md {
		t.Errorf("Expected clean flags after TakeDirty, got spheres=%v materials=%v", sd, md)
	}

	s.AddMaterial(Material{Roughness: 1})
	sd, md = s.TakeDirty()
	if sd {
		t.Error("AddMaterial should not mark spheres dirty")
	}
	if !md {
		t.Error("Expected material dirty flag after AddMaterial")
	}
}

func TestSceneInPlaceEditsDoNotDirty(t *testing.T) {
	s := NewScene()
	s.TakeDirty()

	s.Spheres()[0].Position = [3]float32{1, 2, 3}
	s.Materials()[0].Roughness = 0.9

	if sd, md := s.TakeDirty(); sd || md {
		t.Error("In-place field edits must not touch the structural dirty flags")
	}

	// The edit is still visible through the encode.
	data := s.EncodeSpheres()
	x := math.Float32frombits(binary.LittleEndian.Uint32(data[0:4]))
	if x != 1 {
		t.Errorf("Expected edited position to appear in encode, got x=%f", x)
	}
}

func TestSceneEncodeSpheresLayout(t *testing.T) {
	s := NewScene(
		WithSpheres(
			Sphere{Position: [3]float32{1, 2, 3}, Radius: 4, MaterialIndex: 5},
			Sphere{Position: [3]float32{-1, 0, 1}, Radius: 0.25, MaterialIndex: 0},
		),
		WithMaterials(Material{}),
	)

	data := s.EncodeSpheres()
	if len(data) != 2*int(GPUSphereSize) {
		t.Fatalf("Expected %d bytes, got %d", 2*GPUSphereSize, len(data))
	}

	// First sphere: position vec4 at offset 0, radius at 16, material index at 20.
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[0:4])); got != 1 {
		t.Errorf("Expected position.x 1, got %f", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[8:12])); got != 3 {
		t.Errorf("Expected position.z 3, got %f", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[16:20])); got != 4 {
		t.Errorf("Expected radius 4, got %f", got)
	}
	if got := binary.LittleEndian.Uint32(data[20:24]); got != 5 {
		t.Errorf("Expected material index 5, got %d", got)
	}

	// Second sphere starts at stride 32.
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[32:36])); got != -1 {
		t.Errorf("Expected second sphere position.x -1, got %f", got)
	}
}

func TestSceneEncodeMaterialsLayout(t *testing.T) {
	s := NewScene(
		WithSpheres(Sphere{}),
		WithMaterials(Material{
			Albedo:           [3]float32{0.1, 0.2, 0.3},
			Roughness:        0.5,
			EmissionColor:    [3]float32{1, 0.9, 0.8},
			EmissionStrength: 0.7,
		}),
	)

	data := s.EncodeMaterials()
	if len(data) != int(GPUMaterialSize) {
		t.Fatalf("Expected %d bytes, got %d", GPUMaterialSize, len(data))
	}

	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[12:16])); got != 0.5 {
		t.Errorf("Expected roughness 0.5 at offset 12, got %f", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[16:20])); got != 1 {
		t.Errorf("Expected emission color r at offset 16, got %f", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[28:32])); got != 0.7 {
		t.Errorf("Expected emission strength 0.7 at offset 28, got %f", got)
	}
}

func TestSceneEncodeLargeSceneParallel(t *testing.T) {
	s := NewScene(WithEncodeWorkers(4))

	// Push well past the parallel threshold so the pool path runs.
	const count = encodeParallelThreshold + 500
	for i := 0; i < count; i++ {
		s.AddSphere(Sphere{Position: [3]float32{float32(i), 0, 0}, Radius: 1})
	}

	data := s.EncodeSpheres()
	total := s.SphereCount()
	if len(data) != total*int(GPUSphereSize) {
		t.Fatalf("Expected %d bytes, got %d", total*int(GPUSphereSize), len(data))
	}

	// Spot-check entries across the chunk boundaries.
	for _, idx := range []int{0, 1, count / 2, total - 1} {
		off := idx * int(GPUSphereSize)
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
		want := s.Spheres()[idx].Position[0]
		if got != want {
			t.Errorf("Sphere %d: expected position.x %f, got %f", idx, want, got)
		}
	}
}

func TestSceneGPUTypeSizes(t *testing.T) {
	if GPUSphereSize != 32 {
		t.Errorf("Expected 32-byte sphere stride, got %d", GPUSphereSize)
	}
	if GPUMaterialSize != 32 {
		t.Errorf("Expected 32-byte material stride, got %d", GPUMaterialSize)
	}
}

func TestRandomSphere(t *testing.T) {
	for i := 0; i < 100; i++ {
		sp := RandomSphere(3)
		if sp.MaterialIndex >= 3 {
			t.Fatalf("Material index %d out of range", sp.MaterialIndex)
		}
		if sp.Radius < 0.3 || sp.Radius >= 1.2 {
			t.Fatalf("Radius %f out of range", sp.Radius)
		}
		for _, p := range sp.Position {
			if p < -5 || p >= 5 {
				t.Fatalf("Position component %f out of range", p)
			}
		}
	}

	if sp := RandomSphere(0); sp.MaterialIndex != 0 {
		t.Errorf("Expected material index 0 with no materials, got %d", sp.MaterialIndex)
	}
}
