package clipfile

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultImportFrameRate is the key rate glTF animations are resampled to when none is given.
const DefaultImportFrameRate = 30.0

// ErrNoAnimation is returned when a glTF file has no animation matching the request.
var ErrNoAnimation = errors.New("no matching animation")

// ImportOptions configures glTF animation import.
type ImportOptions struct {
	// FrameRate is the key rate the animation is resampled to. Defaults to DefaultImportFrameRate.
	FrameRate float64

	// Animation selects an animation by name. Empty imports every animation.
	Animation string
}

// ImportGLTF reads the node animations of a .gltf or .glb file and resamples them into clips.
// Nodes are matched to humanoid bones by name, ignoring case and any "prefix:" namespace; nodes named
// Root or Armature drive the clip's root and armature keys. Unmatched nodes are ignored.
//
// Parameters:
//   - path: the glTF file
//   - options: the import options
//
// Returns:
//   - []*animation.Clip: one clip per imported animation, in document order
//   - error: error if the file cannot be parsed or no animation matches
func ImportGLTF(path string, options ImportOptions) ([]*animation.Clip, error) {
	p, err := parseGLTFFile(path)
	if err != nil {
		return nil, err
	}
	return p.importClips(options)
}

func (p *gltfParser) importClips(options ImportOptions) ([]*animation.Clip, error) {
	if options.FrameRate <= 0 {
		options.FrameRate = DefaultImportFrameRate
	}
	paths := p.nodePaths()

	var clips []*animation.Clip
	for i := range p.document.Animations {
		anim := &p.document.Animations[i]
		name := common.Coalesce(anim.Name, fmt.Sprintf("animation_%d", i))
		if options.Animation != "" && options.Animation != name {
			continue
		}
		clip, err := p.importAnimation(anim, name, options.FrameRate, paths)
		if err != nil {
			return nil, fmt.Errorf("animation %q: %w", name, err)
		}
		clips = append(clips, clip)
	}
	if len(clips) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoAnimation, options.Animation)
	}
	return clips, nil
}

// track is one sampled glTF channel.
type track struct {
	times    []float64
	values   [][]float64
	interp   string
	rotation bool
}

type nodeTracks struct {
	position, rotation, scale *track
}

// target is what a glTF node drives in a clip.
type target struct {
	bone      animation.BoneID
	special   animation.SpecialBone
	isSpecial bool
}

func (p *gltfParser) importAnimation(anim *gltfAnimation, name string, rate float64, paths []string) (*animation.Clip, error) {
	nodes := make(map[int]*nodeTracks)
	duration := 0.0

	for i, ch := range anim.Channels {
		if ch.Target.Node == nil {
			continue
		}
		node := *ch.Target.Node
		if node < 0 || node >= len(p.document.Nodes) {
			return nil, fmt.Errorf("channel %d: node %d out of range", i, node)
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("channel %d: invalid sampler index %d", i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		var elementType string
		var width int
		switch ch.Target.Path {
		case gltfAnimPathTranslation, gltfAnimPathScale:
			elementType, width = gltfAccessorTypeVec3, 3
		case gltfAnimPathRotation:
			elementType, width = gltfAccessorTypeVec4, 4
		default:
			// morph target weights have no humanoid mapping
			continue
		}

		times, err := p.readFloats(sampler.Input, gltfAccessorTypeScalar, 1)
		if err != nil {
			return nil, fmt.Errorf("channel %d: failed to read timestamps: %w", i, err)
		}
		values, err := p.readFloats(sampler.Output, elementType, width)
		if err != nil {
			return nil, fmt.Errorf("channel %d: failed to read %s values: %w", i, ch.Target.Path, err)
		}
		tr := &track{
			times:    make([]float64, len(times)),
			values:   values,
			interp:   sampler.Interpolation,
			rotation: ch.Target.Path == gltfAnimPathRotation,
		}
		for j, t := range times {
			tr.times[j] = t[0]
		}
		want := len(tr.times)
		if tr.interp == gltfInterpolationCubicSpline {
			want *= 3
		}
		if len(values) < want {
			return nil, fmt.Errorf("channel %d: %d values for %d keys", i, len(values), len(tr.times))
		}
		if n := len(tr.times); n > 0 {
			duration = max(duration, tr.times[n-1])
		}

		nt := nodes[node]
		if nt == nil {
			nt = &nodeTracks{}
			nodes[node] = nt
		}
		switch ch.Target.Path {
		case gltfAnimPathTranslation:
			nt.position = tr
		case gltfAnimPathRotation:
			nt.rotation = tr
		case gltfAnimPathScale:
			nt.scale = tr
		}
	}

	keyCount := 0
	if len(nodes) > 0 {
		keyCount = int(math.Floor(duration*rate+1e-9)) + 1
	}
	clip := &animation.Clip{Name: name, FrameRate: rate, KeyCount: keyCount}

	order := make([]int, 0, len(nodes))
	for node := range nodes {
		order = append(order, node)
	}
	slices.Sort(order)

	for _, node := range order {
		tgt, ok := resolveNode(p.document.Nodes[node].Name)
		if !ok {
			continue
		}
		keys := nodes[node].sample(keyCount, rate)
		switch {
		case !tgt.isSpecial:
			clip.Channels = append(clip.Channels, animation.Channel{Bone: tgt.bone, Keys: keys})
		case tgt.special == animation.SpecialRoot:
			clip.RootKeys = keys
		case tgt.special == animation.SpecialArmature:
			clip.ArmatureKeys = keys
		}
	}
	slices.SortStableFunc(clip.Channels, func(a, b animation.Channel) int { return int(a.Bone) - int(b.Bone) })

	for node, n := range p.document.Nodes {
		if _, animated := nodes[node]; animated {
			continue
		}
		if _, ok := resolveNode(n.Name); !ok {
			continue
		}
		if rest, ok := restTransform(n); ok {
			if clip.ResetPose == nil {
				clip.ResetPose = make(map[string]animation.Transform)
			}
			clip.ResetPose[paths[node]] = rest
		}
	}

	if err := clip.Validate(); err != nil {
		return nil, err
	}
	return clip, nil
}

// sample resamples every present track at keyCount evenly spaced times.
func (nt *nodeTracks) sample(keyCount int, rate float64) []animation.Transform {
	keys := make([]animation.Transform, keyCount)
	for k := range keys {
		t := float64(k) / rate
		if v := nt.position.sample(t); v != nil {
			keys[k].Position = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
			keys[k].HasPosition = true
		}
		if v := nt.rotation.sample(t); v != nil {
			keys[k].Rotation = quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2], Real: v[3]}
			keys[k].HasRotation = true
		}
		if v := nt.scale.sample(t); v != nil {
			keys[k].Scale = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
			keys[k].HasScale = true
		}
	}
	return keys
}

// value returns the keyed value at index i. Cubic spline samplers store in-tangent, value and
// out-tangent per key; only the value is used.
func (t *track) value(i int) []float64 {
	if t.interp == gltfInterpolationCubicSpline {
		return t.values[3*i+1]
	}
	return t.values[i]
}

// sample evaluates the track at time, holding the first and last keys outside the keyed range.
// Cubic spline tracks are evaluated linearly between keyed values.
func (t *track) sample(time float64) []float64 {
	if t == nil || len(t.times) == 0 {
		return nil
	}
	n := len(t.times)
	if time <= t.times[0] {
		return t.value(0)
	}
	if time >= t.times[n-1] {
		return t.value(n - 1)
	}

	i := sort.SearchFloat64s(t.times, time)
	if t.times[i] == time || t.interp == gltfInterpolationStep {
		if t.times[i] == time {
			return t.value(i)
		}
		return t.value(i - 1)
	}

	a, b := t.value(i-1), t.value(i)
	u := (time - t.times[i-1]) / (t.times[i] - t.times[i-1])
	if t.rotation {
		q := common.Slerp(
			quat.Number{Imag: a[0], Jmag: a[1], Kmag: a[2], Real: a[3]},
			quat.Number{Imag: b[0], Jmag: b[1], Kmag: b[2], Real: b[3]},
			u,
		)
		return []float64{q.Imag, q.Jmag, q.Kmag, q.Real}
	}
	v := common.Lerp(r3.Vec{X: a[0], Y: a[1], Z: a[2]}, r3.Vec{X: b[0], Y: b[1], Z: b[2]}, u)
	return []float64{v.X, v.Y, v.Z}
}

// resolveNode maps a glTF node name to a humanoid bone or a special node.
func resolveNode(name string) (target, bool) {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	switch strings.ToLower(name) {
	case "":
		return target{}, false
	case "root":
		return target{special: animation.SpecialRoot, isSpecial: true}, true
	case "armature":
		return target{special: animation.SpecialArmature, isSpecial: true}, true
	}
	if bone, ok := animation.BoneByName(name); ok {
		return target{bone: bone}, true
	}
	for _, bone := range animation.CanonicalBones() {
		if strings.EqualFold(bone.String(), name) {
			return target{bone: bone}, true
		}
	}
	return target{}, false
}

// restTransform returns the node's authored TRS, or false when it has none.
func restTransform(n gltfNode) (animation.Transform, bool) {
	var t animation.Transform
	if n.Translation != nil {
		t.Position = r3.Vec{X: n.Translation[0], Y: n.Translation[1], Z: n.Translation[2]}
		t.HasPosition = true
	}
	if n.Rotation != nil {
		t.Rotation = quat.Number{Imag: n.Rotation[0], Jmag: n.Rotation[1], Kmag: n.Rotation[2], Real: n.Rotation[3]}
		t.HasRotation = true
	}
	if n.Scale != nil {
		t.Scale = r3.Vec{X: n.Scale[0], Y: n.Scale[1], Z: n.Scale[2]}
		t.HasScale = true
	}
	return t, t.HasPosition || t.HasRotation || t.HasScale
}

// nodePaths returns the slash-joined name path of every node from its scene root.
func (p *gltfParser) nodePaths() []string {
	nodes := p.document.Nodes
	parent := make([]int, len(nodes))
	for i := range parent {
		parent[i] = -1
	}
	for i, n := range nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(nodes) {
				parent[c] = i
			}
		}
	}

	paths := make([]string, len(nodes))
	for i := range nodes {
		var parts []string
		seen := 0
		for at := i; at >= 0 && seen <= len(nodes); at = parent[at] {
			name := nodes[at].Name
			if name == "" {
				name = fmt.Sprintf("node_%d", at)
			}
			parts = append(parts, name)
			seen++
		}
		slices.Reverse(parts)
		paths[i] = strings.Join(parts, "/")
	}
	return paths
}
