package nif

import (
	"fmt"
	"regexp"
	"strconv"
)

// PartitionKind distinguishes Skyrim body parts from FO4 segments.
type PartitionKind int

const (
	// SkyPartition is a Skyrim BSDismemberSkinInstance body part.
	SkyPartition PartitionKind = iota
	// FO4Segment is a top-level BSSubIndexTriShape segment.
	FO4Segment
	// FO4Subsegment is a segment child carrying a material hash.
	FO4Subsegment
)

func (k PartitionKind) String() string {
	switch k {
	case SkyPartition:
		return "SkyPartition"
	case FO4Segment:
		return "FO4Segment"
	case FO4Subsegment:
		return "FO4Subsegment"
	}
	return fmt.Sprintf("PartitionKind(%d)", int(k))
}

// Partition is a body part or segment. Vertex groups carry partitions
// through the editor by name.
type Partition struct {
	Kind  PartitionKind
	ID    int
	Name  string
	Flags uint16

	// Subsegment fields.
	Parent       string
	SubsegmentID int
	Material     uint32
}

var (
	skyPartitionRe  = regexp.MustCompile(`^SBP_(\d+)_\w+$`)
	fo4SegmentRe    = regexp.MustCompile(`^FO4 Seg (\d+)$`)
	fo4SubsegmentRe = regexp.MustCompile(`^(?:(FO4 Seg \d+) )?\| (\d+)(?: \| (?:0x)?([0-9a-fA-F]+))?$`)
)

// Skyrim body part names by slot id.
var skyPartitionNames = map[int]string{
	30:  "HEAD",
	31:  "HAIR",
	32:  "BODY",
	33:  "HANDS",
	34:  "FOREARMS",
	35:  "AMULET",
	36:  "RING",
	37:  "FEET",
	38:  "CALVES",
	39:  "SHIELD",
	40:  "TAIL",
	41:  "LONGHAIR",
	42:  "CIRCLET",
	43:  "EARS",
	130: "HEAD",
	131: "HAIR",
	141: "LONGHAIR",
	142: "CIRCLET",
	143: "EARS",
	150: "DECAPITATEDHEAD",
	230: "HEAD",
}

// SkyPartitionID returns the body part id encoded in a group name such as
// "SBP_32_BODY".
func SkyPartitionID(name string) (int, bool) {
	m := skyPartitionRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	return id, err == nil
}

// SkyPartitionName returns the group name for body part id.
func SkyPartitionName(id int) string {
	if n, ok := skyPartitionNames[id]; ok {
		return fmt.Sprintf("SBP_%d_%s", id, n)
	}
	return fmt.Sprintf("SBP_%d_SLOT", id)
}

// FO4SegmentID returns the segment number in a name such as "FO4 Seg 003".
func FO4SegmentID(name string) (int, bool) {
	m := fo4SegmentRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	return id, err == nil
}

// FO4SegmentName returns the group name of the segment with index i.
func FO4SegmentName(i int) string {
	return fmt.Sprintf("FO4 Seg %03d", i)
}

// FO4SubsegmentMatch parses a subsegment group name such as
// "FO4 Seg 001 | 003 | 86b72980". The parent part is optional.
func FO4SubsegmentMatch(name string) (parent string, id int, material uint32, ok bool) {
	m := fo4SubsegmentRe.FindStringSubmatch(name)
	if m == nil {
		return "", 0, 0, false
	}
	id, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, 0, false
	}
	if m[3] != "" {
		v, err := strconv.ParseUint(m[3], 16, 32)
		if err != nil {
			return "", 0, 0, false
		}
		material = uint32(v)
	}
	return m[1], id, material, true
}

// FO4SubsegmentName returns the group name of a subsegment.
func FO4SubsegmentName(parent string, id int, material uint32) string {
	return fmt.Sprintf("%s | %03d | %08x", parent, id, material)
}

// PartitionsFromGroups builds partitions from the vertex group names that
// follow a partition naming pattern. Segments are numbered in the order
// they are found. Subsegments whose parent segment has no group get one
// created for them.
func PartitionsFromGroups(groups []string) []Partition {
	var result []Partition
	index := make(map[string]int)
	add := func(p Partition) {
		index[p.Name] = len(result)
		result = append(result, p)
	}

	for _, g := range groups {
		if id, ok := SkyPartitionID(g); ok {
			add(Partition{Kind: SkyPartition, ID: id, Name: g})
		} else if _, ok := FO4SegmentID(g); ok {
			add(Partition{Kind: FO4Segment, ID: len(result), Name: g})
		}
	}

	for _, g := range groups {
		if _, done := index[g]; done {
			continue
		}
		parent, subID, material, ok := FO4SubsegmentMatch(g)
		if !ok {
			continue
		}
		if parent == "" {
			parent = fmt.Sprintf("FO4Segment #%d", len(result))
		}
		if _, ok := index[parent]; !ok {
			add(Partition{Kind: FO4Segment, ID: len(result), Name: parent})
		}
		add(Partition{
			Kind:         FO4Subsegment,
			ID:           len(result),
			Name:         g,
			Parent:       parent,
			SubsegmentID: subID,
			Material:     material,
		})
	}
	return result
}

// PartitionIDs maps partition names to ids.
func PartitionIDs(parts []Partition) map[string]int {
	ids := make(map[string]int, len(parts))
	for _, p := range parts {
		ids[p.Name] = p.ID
	}
	return ids
}

// PartitionGroupName returns the vertex group name that carries p.
func PartitionGroupName(p Partition) string {
	if p.Name != "" {
		return p.Name
	}
	switch p.Kind {
	case SkyPartition:
		return SkyPartitionName(p.ID)
	case FO4Segment:
		return FO4SegmentName(p.ID)
	default:
		return FO4SubsegmentName(p.Parent, p.SubsegmentID, p.Material)
	}
}
