package pipeline

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/CMSgov/casemix-app/casemix/constants"
	"github.com/CMSgov/casemix-app/casemix/loader"
	"github.com/CMSgov/casemix-app/casemix/utils"
	"github.com/CMSgov/casemix-app/conf"
)

// Inputs locates the three source tables. Paths are local files or s3://bucket/key URIs.
type Inputs struct {
	// BillingFile is the provider-by-service CSV. It only feeds the national profile
	// and may be left empty.
	BillingFile string
	HHRGFile    string
	CaseMixFile string
}

// Shapes are the expected table dimensions. A zero dimension is not checked.
type Shapes struct {
	Billing loader.Shape
	HHRG    loader.Shape
	CaseMix loader.Shape
}

// Config describes one run: the input files, their expected dimensions and where
// they are read from.
type Config struct {
	Inputs
	Shapes

	Logger logrus.FieldLogger
	// LoaderLogger receives the loader's entries. Logger is used when it is nil.
	LoaderLogger logrus.FieldLogger
	Files        loader.FileProcessor
}

// DefaultShapes returns the dimensions of the CY2014 public use files.
func DefaultShapes() Shapes {
	return Shapes{
		Billing: loader.Shape{Rows: constants.BillingRows, Cols: constants.BillingCols},
		HHRG:    loader.Shape{Rows: constants.HHRGRows, Cols: constants.HHRGCols},
		CaseMix: loader.Shape{Rows: constants.CaseMixRows, Cols: constants.CaseMixCols},
	}
}

// InputsFromEnv reads the three input paths from the CASEMIX_*_FILE variables.
func InputsFromEnv() Inputs {
	return Inputs{
		BillingFile: conf.GetEnv("CASEMIX_BILLING_FILE"),
		HHRGFile:    conf.GetEnv("CASEMIX_HHRG_FILE"),
		CaseMixFile: conf.GetEnv("CASEMIX_CASEMIX_FILE"),
	}
}

// ShapesFromEnv reads CASEMIX_*_SHAPE overrides, falling back to DefaultShapes.
func ShapesFromEnv() (Shapes, error) {
	shapes := DefaultShapes()
	for _, s := range []struct {
		key   string
		shape *loader.Shape
	}{
		{"CASEMIX_BILLING_SHAPE", &shapes.Billing},
		{"CASEMIX_HHRG_SHAPE", &shapes.HHRG},
		{"CASEMIX_CASEMIX_SHAPE", &shapes.CaseMix},
	} {
		rows, cols, err := utils.ShapeFromEnv(s.key, s.shape.Rows, s.shape.Cols)
		if err != nil {
			return Shapes{}, fmt.Errorf("%s: %w", s.key, err)
		}
		s.shape.Rows, s.shape.Cols = rows, cols
	}
	return shapes, nil
}

func (c Config) validate() error {
	if c.HHRGFile == "" {
		return errors.New("invalid config, HHRGFile must be set")
	}
	if c.CaseMixFile == "" {
		return errors.New("invalid config, CaseMixFile must be set")
	}
	return nil
}
