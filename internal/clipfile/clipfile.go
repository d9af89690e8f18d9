// Package clipfile reads and writes animation clip fixtures as YAML or msgpack documents and imports
// node animations from glTF files.
package clipfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Format is a clip document encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatMsgpack
	// FormatGLTF is import only.
	FormatGLTF
)

var (
	// ErrUnknownFormat is returned for file extensions without a registered encoding.
	ErrUnknownFormat = errors.New("unknown clip format")

	// ErrInvalidDocument is returned when a document names an unknown bone or carries a malformed key.
	ErrInvalidDocument = errors.New("invalid clip document")

	// ErrReadOnlyFormat is returned when encoding to a format clips can only be imported from.
	ErrReadOnlyFormat = errors.New("clip format is read only")
)

// Key is one serialized transform. Absent components are omitted.
type Key struct {
	// Position is [x, y, z].
	Position []float64 `yaml:"p,omitempty,flow" msgpack:"p,omitempty"`

	// Rotation is [x, y, z, w].
	Rotation []float64 `yaml:"r,omitempty,flow" msgpack:"r,omitempty"`

	// Scale is [x, y, z].
	Scale []float64 `yaml:"s,omitempty,flow" msgpack:"s,omitempty"`
}

// Channel is the serialized key list of one bone, addressed by humanoid bone name.
type Channel struct {
	Bone string `yaml:"bone" msgpack:"bone"`
	Keys []Key  `yaml:"keys" msgpack:"keys"`
}

// Document is the on-disk shape of a clip.
type Document struct {
	Name        string               `yaml:"name" msgpack:"name"`
	FrameRate   float64              `yaml:"frameRate" msgpack:"frameRate"`
	KeyCount    int                  `yaml:"keyCount" msgpack:"keyCount"`
	Channels    []Channel            `yaml:"channels" msgpack:"channels"`
	Root        []Key                `yaml:"root,omitempty" msgpack:"root,omitempty"`
	Armature    []Key                `yaml:"armature,omitempty" msgpack:"armature,omitempty"`
	Blendshapes map[string][]float64 `yaml:"blendshapes,omitempty" msgpack:"blendshapes,omitempty"`
	ResetPose   map[string]Key       `yaml:"resetPose,omitempty" msgpack:"resetPose,omitempty"`
}

// FormatForPath picks the encoding from a file extension.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Format: the encoding
//   - error: ErrUnknownFormat for unrecognised extensions
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".msgpack", ".mpk":
		return FormatMsgpack, nil
	case ".gltf", ".glb":
		return FormatGLTF, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Load reads and validates a clip file, choosing the decoder from the extension. glTF files yield
// their first animation resampled at DefaultImportFrameRate.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - *animation.Clip: the clip
//   - error: error if the file cannot be read, decoded or validated
func Load(path string) (*animation.Clip, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	if format == FormatGLTF {
		clips, err := ImportGLTF(path, ImportOptions{})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return clips[0], nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read clip file %q: %w", path, err)
	}
	clip, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// Save writes clip to path, choosing the encoder from the extension.
//
// Parameters:
//   - path: the file path
//   - clip: the clip to write
//
// Returns:
//   - error: error if the clip cannot be encoded or written
func Save(path string, clip *animation.Clip) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(clip, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write clip file %q: %w", path, err)
	}
	return nil
}

// Decode parses and validates a clip document.
//
// Parameters:
//   - data: the encoded document
//   - format: the encoding
//
// Returns:
//   - *animation.Clip: the clip
//   - error: error if the document is malformed or the clip fails validation
func Decode(data []byte, format Format) (*animation.Clip, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid msgpack: %w", err)
		}
	case FormatGLTF:
		p, err := parseGLTFBytes(data, "")
		if err != nil {
			return nil, err
		}
		clips, err := p.importClips(ImportOptions{})
		if err != nil {
			return nil, err
		}
		return clips[0], nil
	default:
		return nil, ErrUnknownFormat
	}
	return doc.Clip()
}

// Encode serializes clip in the given format.
//
// Parameters:
//   - clip: the clip
//   - format: the encoding
//
// Returns:
//   - []byte: the encoded document
//   - error: error if the encoder fails
func Encode(clip *animation.Clip, format Format) ([]byte, error) {
	doc := FromClip(clip)
	switch format {
	case FormatYAML:
		return yaml.Marshal(&doc)
	case FormatMsgpack:
		return msgpack.Marshal(&doc)
	case FormatGLTF:
		return nil, ErrReadOnlyFormat
	}
	return nil, ErrUnknownFormat
}

// FromClip converts a clip into its document form.
//
// Parameters:
//   - clip: the clip
//
// Returns:
//   - Document: the document
func FromClip(clip *animation.Clip) Document {
	doc := Document{
		Name:      clip.Name,
		FrameRate: clip.FrameRate,
		KeyCount:  clip.KeyCount,
		Channels:  make([]Channel, 0, len(clip.Channels)),
		Root:      keysOf(clip.RootKeys),
		Armature:  keysOf(clip.ArmatureKeys),
	}
	for _, ch := range clip.Channels {
		doc.Channels = append(doc.Channels, Channel{Bone: ch.Bone.String(), Keys: keysOf(ch.Keys)})
	}
	if len(clip.Blendshapes) > 0 {
		doc.Blendshapes = make(map[string][]float64, len(clip.Blendshapes))
		for id, weights := range clip.Blendshapes {
			doc.Blendshapes[id.String()] = slices.Clone(weights)
		}
	}
	if len(clip.ResetPose) > 0 {
		doc.ResetPose = make(map[string]Key, len(clip.ResetPose))
		for path, t := range clip.ResetPose {
			doc.ResetPose[path] = keyOf(t)
		}
	}
	return doc
}

// Clip converts the document into a validated clip.
//
// Returns:
//   - *animation.Clip: the clip
//   - error: ErrInvalidDocument or animation.ErrInvalidClip wrapped with the first problem found
func (d Document) Clip() (*animation.Clip, error) {
	clip := &animation.Clip{
		Name:      d.Name,
		FrameRate: d.FrameRate,
		KeyCount:  d.KeyCount,
		Channels:  make([]animation.Channel, 0, len(d.Channels)),
	}

	for _, ch := range d.Channels {
		bone, ok := animation.BoneByName(ch.Bone)
		if !ok {
			return nil, fmt.Errorf("%w: unknown bone %q", ErrInvalidDocument, ch.Bone)
		}
		keys, err := transformsOf(ch.Keys)
		if err != nil {
			return nil, fmt.Errorf("%w: bone %s: %w", ErrInvalidDocument, ch.Bone, err)
		}
		clip.Channels = append(clip.Channels, animation.Channel{Bone: bone, Keys: keys})
	}

	var err error
	if clip.RootKeys, err = transformsOf(d.Root); err != nil {
		return nil, fmt.Errorf("%w: root: %w", ErrInvalidDocument, err)
	}
	if clip.ArmatureKeys, err = transformsOf(d.Armature); err != nil {
		return nil, fmt.Errorf("%w: armature: %w", ErrInvalidDocument, err)
	}

	if len(d.Blendshapes) > 0 {
		clip.Blendshapes = make(map[animation.BlendshapeID][]float64, len(d.Blendshapes))
		for name, weights := range d.Blendshapes {
			id, ok := animation.BlendshapeByName(name)
			if !ok {
				return nil, fmt.Errorf("%w: unknown blendshape %q", ErrInvalidDocument, name)
			}
			clip.Blendshapes[id] = slices.Clone(weights)
		}
	}
	if len(d.ResetPose) > 0 {
		clip.ResetPose = make(map[string]animation.Transform, len(d.ResetPose))
		for path, k := range d.ResetPose {
			t, err := k.Transform()
			if err != nil {
				return nil, fmt.Errorf("%w: reset %s: %w", ErrInvalidDocument, path, err)
			}
			clip.ResetPose[path] = t
		}
	}

	if err := clip.Validate(); err != nil {
		return nil, err
	}
	return clip, nil
}

// Transform converts the key into a transform, marking absent components.
//
// Returns:
//   - animation.Transform: the transform
//   - error: error if a component has the wrong number of values
func (k Key) Transform() (animation.Transform, error) {
	var t animation.Transform
	if k.Position != nil {
		if len(k.Position) != 3 {
			return t, fmt.Errorf("position has %d values, want 3", len(k.Position))
		}
		t.Position = r3.Vec{X: k.Position[0], Y: k.Position[1], Z: k.Position[2]}
		t.HasPosition = true
	}
	if k.Rotation != nil {
		if len(k.Rotation) != 4 {
			return t, fmt.Errorf("rotation has %d values, want 4", len(k.Rotation))
		}
		t.Rotation = quat.Number{Imag: k.Rotation[0], Jmag: k.Rotation[1], Kmag: k.Rotation[2], Real: k.Rotation[3]}
		t.HasRotation = true
	}
	if k.Scale != nil {
		if len(k.Scale) != 3 {
			return t, fmt.Errorf("scale has %d values, want 3", len(k.Scale))
		}
		t.Scale = r3.Vec{X: k.Scale[0], Y: k.Scale[1], Z: k.Scale[2]}
		t.HasScale = true
	}
	return t, nil
}

func keyOf(t animation.Transform) Key {
	var k Key
	if t.HasPosition {
		k.Position = []float64{t.Position.X, t.Position.Y, t.Position.Z}
	}
	if t.HasRotation {
		k.Rotation = []float64{t.Rotation.Imag, t.Rotation.Jmag, t.Rotation.Kmag, t.Rotation.Real}
	}
	if t.HasScale {
		k.Scale = []float64{t.Scale.X, t.Scale.Y, t.Scale.Z}
	}
	return k
}

func keysOf(ts []animation.Transform) []Key {
	if ts == nil {
		return nil
	}
	out := make([]Key, len(ts))
	for i, t := range ts {
		out[i] = keyOf(t)
	}
	return out
}

func transformsOf(keys []Key) ([]animation.Transform, error) {
	if keys == nil {
		return nil, nil
	}
	out := make([]animation.Transform, len(keys))
	for i, k := range keys {
		t, err := k.Transform()
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}
