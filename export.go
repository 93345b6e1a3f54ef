package reboundx

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DataDog/zstd"
	"github.com/soniakeys/meeus/julian"
)

// CgCatalog definition.
type CgCatalog struct {
	Version string     `json:"version"`
	Name    string     `json:"name"`
	Items   []*CgItems `json:"items"`
	Require []string   `json:"require,omitempty"`
}

func (c *CgCatalog) String() string {
	return c.Name + "(" + c.Version + ")"
}

// CgItems definition.
type CgItems struct {
	Class           string            `json:"class"`
	Name            string            `json:"name"`
	StartTime       string            `json:"startTime"`
	EndTime         string            `json:"endTime"`
	Center          string            `json:"center"`
	TrajectoryFrame string            `json:"trajectoryFrame"`
	Trajectory      *CgTrajectory     `json:"trajectory,omitempty"`
	Label           *CgLabel          `json:"label,omitempty"`
	TrajectoryPlot  *CgTrajectoryPlot `json:"trajectoryPlot,omitempty"`
}

// CgTrajectory definition.
type CgTrajectory struct {
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
}

// Validate validates a CgTrajectory.
func (t *CgTrajectory) Validate() error {
	if t.Type != "InterpolatedStates" || !strings.HasSuffix(t.Source, "xyzv") {
		return errors.New("only InterpolatedStates are currently supported in Cosmographia trajectory types")
	}
	return nil
}

func (t *CgTrajectory) String() string {
	return t.Source + " as " + t.Type
}

// CgLabel definition.
type CgLabel struct {
	Color    []float64 `json:"color,omitempty"`
	FadeSize int       `json:"fadeSize,omitempty"`
	ShowText bool      `json:"showText,omitempty"`
}

func (l *CgLabel) String() string {
	return fmt.Sprintf("color %v, fade %d, show %v", l.Color, l.FadeSize, l.ShowText)
}

// CgTrajectoryPlot definition.
type CgTrajectoryPlot struct {
	Color       []float64 `json:"color,omitempty"`
	LineWidth   int       `json:"lineWidth,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Lead        string    `json:"lead,omitempty"`
	Fade        int       `json:"fade,omitempty"`
	SampleCount int       `json:"sampleCount,omitempty"`
}

// FromText initializes the sample from an xyzv record of seven columns.
// The particle number is not part of the record, the caller owns it.
func (i *TrajectorySample) FromText(record []string) {
	vals := make([]float64, 7)
	for k, str := range record[:7] {
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			panic(err)
		}
		vals[k] = val
	}
	i.JD = vals[0]
	copy(i.R[:], vals[1:4])
	copy(i.V[:], vals[4:7])
}

// ToText converts to text for written output.
func (i TrajectorySample) ToText() string {
	return fmt.Sprintf("%f %f %f %f %f %f %f", i.JD, i.R[0], i.R[1], i.R[2], i.V[0], i.V[1], i.V[2])
}

// ParseTrajectory converts the content of an xyzv file into samples, all
// tagged with the given particle number.
func ParseTrajectory(s string, particle int) []TrajectorySample {
	var samples = []TrajectorySample{}
	r := csv.NewReader(strings.NewReader(s))
	r.Comma = ' '
	r.Comment = '#'
	for {
		record, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			panic(err)
		}
		sample := TrajectorySample{Particle: particle}
		sample.FromText(record)
		samples = append(samples, sample)
	}

	return samples
}

// sink wraps the destination file and its optional compressor.
type sink struct {
	f *os.File
	z io.WriteCloser
	w io.Writer
}

func newSink(path string, compress bool) *sink {
	if compress {
		path += ".zst"
	}
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	s := sink{f: f, w: f}
	if compress {
		s.z = zstd.NewWriter(f)
		s.w = s.z
	}
	return &s
}

func (s *sink) WriteString(str string) (int, error) {
	return io.WriteString(s.w, str)
}

func (s *sink) Close() error {
	if s.z != nil {
		if err := s.z.Close(); err != nil {
			return err
		}
	}
	return s.f.Close()
}

// createInterpolatedFile returns a sink which requires a defer close statement!
func createInterpolatedFile(filename string, conf ExportConfig, startJD float64) *sink {
	config := rebxConfig()
	if conf.Timestamp {
		t := time.Now()
		filename = fmt.Sprintf("%s/prop-%s-%d-%02d-%02dT%02d.%02d.%02d.xyzv", config.outputDir, filename, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	} else {
		filename = fmt.Sprintf("%s/prop-%s.xyzv", config.outputDir, filename)
	}
	f := newSink(filename, conf.Compress)
	// Header
	f.WriteString(fmt.Sprintf(`# Creation date (UTC): %s
# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Time is a TDB Julian date
#   Position in AU
#   Velocity in AU/day
#   Simulation time start (UTC): %s`, time.Now(), julian.JDToTime(startJD).UTC()))
	return f
}

// createStatesCSVFile returns a sink which requires a defer close statement!
func createStatesCSVFile(filename string, conf ExportConfig, startJD float64) *sink {
	config := rebxConfig()
	if conf.Timestamp {
		t := time.Now()
		filename = fmt.Sprintf("%s/states-%s-%d-%02d-%02dT%02d.%02d.%02d.csv", config.outputDir, filename, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	} else {
		filename = fmt.Sprintf("%s/states-%s.csv", config.outputDir, filename)
	}
	f := newSink(filename, conf.Compress)
	// Header
	f.WriteString(fmt.Sprintf(`# Creation date (UTC): %s
# Positions in AU, velocities in AU/day, times are TDB Julian dates.
#   Simulation time start (UTC): %s
jd,particle,x,y,z,vx,vy,vz`, time.Now(), julian.JDToTime(startJD).UTC()))
	return f
}

// createStatesTxtFile returns a sink which requires a defer close statement!
// The format matches the plain table of the classic driver: time, particle
// number and six state columns.
func createStatesTxtFile(filename string, conf ExportConfig) *sink {
	config := rebxConfig()
	return newSink(fmt.Sprintf("%s/out_states-%s.txt", config.outputDir, filename), conf.Compress)
}

// StreamStates streams the trajectory samples of a propagation to the
// configured files. It must run in its own goroutine and returns when
// the channel closes.
func StreamStates(conf ExportConfig, stateChan <-chan (TrajectorySample)) {
	var firstSample, prevSample *TrajectorySample
	var fCSV, fTxt *sink
	fXYZV := map[int]*sink{}
	cgItems := []*CgItems{}
	color := []float64{0.6, 1, 1}

	defer func() {
		if conf.Cosmo {
			// Let's write the catalog.
			c := CgCatalog{Version: "1.0", Name: conf.Filename, Items: cgItems, Require: nil}
			fc := newSink(fmt.Sprintf("%s/catalog-%s.json", rebxConfig().outputDir, conf.Filename), false)
			defer fc.Close()
			fmt.Printf("Saving file to %s.\n", fc.f.Name())
			if marsh, err := json.Marshal(c); err != nil {
				panic(err)
			} else {
				fc.w.Write(marsh)
			}
		}
	}()

	for {
		sample, more := <-stateChan
		if !more {
			// The channel is closed, hence the propagation is over.
			endJD := 0.0
			if prevSample != nil {
				endJD = prevSample.JD
			}
			for _, f := range fXYZV {
				f.WriteString(fmt.Sprintf("\n# Simulation time end (UTC): %s\n", julian.JDToTime(endJD).UTC()))
				f.Close()
			}
			if fCSV != nil {
				fCSV.WriteString("\n")
				fCSV.Close()
			}
			if fTxt != nil {
				fTxt.Close()
			}
			if conf.Cosmo && firstSample != nil {
				longerEnd := julian.JDToTime(endJD).Add(time.Duration(24) * time.Hour)
				for _, item := range cgItems {
					item.EndTime = fmt.Sprintf("%s", longerEnd.UTC())
					item.TrajectoryPlot.Duration = fmt.Sprintf("%d d", int(longerEnd.Sub(julian.JDToTime(firstSample.JD)).Hours()/24+1))
				}
			}
			return
		}

		if conf.Transform != nil {
			sample = conf.Transform(sample)
		}
		if firstSample == nil {
			first := sample
			firstSample = &first
			if conf.AsCSV {
				fCSV = createStatesCSVFile(conf.Filename, conf, sample.JD)
			}
			if conf.AsTxt {
				fTxt = createStatesTxtFile(conf.Filename, conf)
			}
		}
		if conf.Cosmo {
			f, found := fXYZV[sample.Particle]
			if !found {
				f = createInterpolatedFile(fmt.Sprintf("%s-p%d", conf.Filename, sample.Particle), conf, sample.JD)
				fXYZV[sample.Particle] = f
				traj := CgTrajectory{Type: "InterpolatedStates", Source: fmt.Sprintf("prop-%s-p%d.xyzv", conf.Filename, sample.Particle)}
				label := CgLabel{Color: color, FadeSize: 1000000, ShowText: true}
				plot := CgTrajectoryPlot{Color: color, LineWidth: 1, Duration: "", Lead: "0 d", Fade: 0, SampleCount: 10}
				item := CgItems{Class: "spacecraft", Name: fmt.Sprintf("%s-p%d", conf.Filename, sample.Particle), StartTime: fmt.Sprintf("%s", julian.JDToTime(sample.JD).UTC()), EndTime: "", Center: "SSB", TrajectoryFrame: "ICRF", Trajectory: &traj, Label: &label, TrajectoryPlot: &plot}
				cgItems = append(cgItems, &item)
			}
			if _, err := f.WriteString("\n" + sample.ToText()); err != nil {
				panic(err)
			}
		}
		if conf.AsCSV {
			asTxt := fmt.Sprintf("%f,%d,%f,%f,%f,%f,%f,%f", sample.JD, sample.Particle, sample.R[0], sample.R[1], sample.R[2], sample.V[0], sample.V[1], sample.V[2])
			if _, err := fCSV.WriteString("\n" + asTxt); err != nil {
				panic(err)
			}
		}
		if conf.AsTxt {
			asTxt := fmt.Sprintf("%f %d %16.8e %16.8e %16.8e %16.8e %16.8e %16.8e\n", sample.JD, sample.Particle, sample.R[0], sample.R[1], sample.R[2], sample.V[0], sample.V[1], sample.V[2])
			if _, err := fTxt.WriteString(asTxt); err != nil {
				panic(err)
			}
		}
		prev := sample
		prevSample = &prev
	}
}

// ExportConfig configures the exporting of a propagation.
type ExportConfig struct {
	Filename  string
	Cosmo     bool // One xyzv file per particle plus the catalog.
	AsCSV     bool
	AsTxt     bool // Plain table like the classic driver wrote.
	Compress  bool // zstd compress the trajectory files.
	Timestamp bool
	Transform func(s TrajectorySample) TrajectorySample // Applied to each sample before writing, e.g. a frame shift.
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.Cosmo && !c.AsCSV && !c.AsTxt
}
