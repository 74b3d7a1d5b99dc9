package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/banshee-data/sprint.report/internal/sprint"
)

// TrajectoryColumns is the column order shared by the CSV and Parquet exports.
var TrajectoryColumns = []string{"run_id", "frame_index", "time_s", "elapsed_s", "distance_m"}

type trajectoryRow struct {
	RunID      string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FrameIndex int64   `parquet:"name=frame_index, type=INT64"`
	TimeS      float64 `parquet:"name=time_s, type=DOUBLE"`
	ElapsedS   float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	DistanceM  float64 `parquet:"name=distance_m, type=DOUBLE"`
}

func trajectoryRows(res *sprint.Result) ([]trajectoryRow, error) {
	if res == nil || len(res.Trajectory) == 0 {
		return nil, ErrNoTrajectory
	}
	rows := make([]trajectoryRow, 0, len(res.Trajectory))
	for _, s := range res.Trajectory {
		rows = append(rows, trajectoryRow{
			RunID:      res.RunID,
			FrameIndex: int64(s.FrameIndex),
			TimeS:      s.TimeS,
			ElapsedS:   s.TimeS - res.StartTimeS,
			DistanceM:  s.DistanceM,
		})
	}
	return rows, nil
}

// EncodeCSV writes the trajectory as CSV with a header row.
func EncodeCSV(w io.Writer, res *sprint.Result) error {
	rows, err := trajectoryRows(res)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(TrajectoryColumns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.RunID,
			strconv.FormatInt(r.FrameIndex, 10),
			formatFloat(r.TimeS),
			formatFloat(r.ElapsedS),
			formatFloat(r.DistanceM),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes the trajectory CSV to path.
func WriteCSV(res *sprint.Result, path string) error {
	return writeFile(path, func(w io.Writer) error { return EncodeCSV(w, res) })
}

// MarshalParquet encodes the trajectory as a snappy-compressed Parquet file.
func MarshalParquet(res *sprint.Result) ([]byte, error) {
	rows, err := trajectoryRows(res)
	if err != nil {
		return nil, err
	}
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(trajectoryRow), 1)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

// WriteParquet writes the trajectory Parquet file to path.
func WriteParquet(res *sprint.Result, path string) error {
	data, err := MarshalParquet(res)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
