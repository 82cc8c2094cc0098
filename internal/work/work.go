package work

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Work is a named collection of images to download.
type Work struct {
	Site   string     `yaml:"site,omitempty" json:"site,omitempty"`
	Title  string     `yaml:"title" json:"title"`
	Images []ImageRef `yaml:"images" json:"images"`

	// Source is the page the images were found on. Image hosts often
	// check it as the Referer.
	Source string `yaml:"source,omitempty" json:"source,omitempty"`
}

// Empty reports whether there is nothing to download.
func (w *Work) Empty() bool {
	return w == nil || len(w.Images) == 0
}

// ImageRef references a single image of a Work. A ref with no Filename is
// bare: only Location is meaningful and the normalizer assigns the rest.
type ImageRef struct {
	Index    int    `yaml:"index" json:"index"`
	Filename string `yaml:"filename,omitempty" json:"filename,omitempty"`
	Location string `yaml:"url" json:"url"`
}

// Bare returns a bare reference to location.
func Bare(location string) ImageRef {
	return ImageRef{Location: location}
}

// Bares returns bare references for each location, in order.
func Bares(locations ...string) []ImageRef {
	refs := make([]ImageRef, len(locations))
	for i, loc := range locations {
		refs[i] = Bare(loc)
	}
	return refs
}

// IsDescriptor reports whether r was already normalized by its producer.
func (r ImageRef) IsDescriptor() bool {
	return r.Filename != ""
}

// UnmarshalYAML accepts either a plain location string or a mapping with
// index, filename and url keys.
func (r *ImageRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*r = Bare(node.Value)
		return nil
	case yaml.MappingNode:
		type plain ImageRef
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		if p.Index < 0 {
			return fmt.Errorf("work: line %d: negative image index %d", node.Line, p.Index)
		}
		*r = ImageRef(p)
		return nil
	default:
		return fmt.Errorf("work: line %d: image must be a string or a mapping", node.Line)
	}
}

// Job is the unit of work of the pipeline.
type Job struct {
	Ref               ImageRef
	Path              string
	AttemptsRemaining int
}

// Index returns the position of the job's image in its Work.
func (j Job) Index() int { return j.Ref.Index }

// Filename returns the file name without extension.
func (j Job) Filename() string { return j.Ref.Filename }

// Location returns the URL the image is fetched from.
func (j Job) Location() string { return j.Ref.Location }

// Failure describes a job that did not produce an output file.
type Failure struct {
	Index    int    `json:"index"`
	Location string `json:"location"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Error    string `json:"error"`
}

// NewFailure records j as failed with err.
func NewFailure(j Job, err error) Failure {
	f := Failure{
		Index:    j.Index(),
		Location: j.Location(),
		Filename: j.Filename(),
		Path:     j.Path,
	}
	if err != nil {
		f.Error = err.Error()
	}
	return f
}
