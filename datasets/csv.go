package datasets

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	nd "github.com/sharnoff/nestdrop"
)

// LoadCSV reads a dataset with one sample per line: the class label (an integer in
// [0, classes)), followed by the input features, all separated by commas. Every line must have the
// same number of features. Blank lines are skipped, and each feature is multiplied by scale.
func LoadCSV(r io.Reader, classes int, scale float64) (Dataset, error) {
	if classes < 1 {
		return Dataset{}, errors.Wrapf(nd.ErrInvalidConfig, "number of classes must be positive (%d)", classes)
	}

	var labels []int
	var values []float64
	features := -1

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		strs := strings.Split(text, ",")
		if features == -1 {
			features = len(strs) - 1
			if features < 1 {
				return Dataset{}, errors.Errorf("line %d has no features", line)
			}
		} else if len(strs)-1 != features {
			return Dataset{}, nd.SizeMismatchError{Expected: features, Got: len(strs) - 1, What: "features on line " + strconv.Itoa(line)}
		}

		label, err := strconv.Atoi(strings.TrimSpace(strs[0]))
		if err != nil {
			return Dataset{}, errors.Wrapf(err, "bad label on line %d", line)
		} else if label < 0 || label >= classes {
			return Dataset{}, errors.Errorf("label %d on line %d is outside [0, %d)", label, line, classes)
		}
		labels = append(labels, label)

		for i, s := range strs[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return Dataset{}, errors.Wrapf(err, "bad feature %d on line %d", i, line)
			}
			values = append(values, v*scale)
		}
	}

	if err := sc.Err(); err != nil {
		return Dataset{}, errors.Wrapf(err, "Failed to read dataset")
	} else if len(labels) == 0 {
		return Dataset{}, errors.Errorf("dataset has no data (len == 0)")
	}

	d := Dataset{
		Inputs:  mat.NewDense(len(labels), features, values),
		Targets: mat.NewDense(len(labels), classes, nil),
	}
	for i, l := range labels {
		d.Targets.Set(i, l, 1)
	}

	return d, nil
}
