package evidence

import (
	"errors"
	"fmt"
	"math"

	c "denovo/pipeline/models/constants"
	m "denovo/pipeline/models/constants/modality"
	"denovo/pipeline/models/indexes"
	"denovo/pipeline/services/prediction"
)

// positions on either side of the variant summarized for expression and
// chromatin
const flankWindow = 50

var errEmptyTrack = errors.New("prediction contains no values")

// Summarize reduces a prediction to the modality's delta and the
// statistics behind it. The variant's array index is derived from the
// track's resolution, (end-start)/positions base pairs per row.
func Summarize(modality c.Modality, pred *prediction.Prediction, pos int, requested indexes.Interval) (*indexes.ModalityEvidence, error) {
	n := pred.Reference.Len()
	if n == 0 || pred.Alternate.Len() != n {
		return nil, errEmptyTrack
	}

	iv := pred.Reference.Interval
	if iv.Size() <= 0 {
		iv = requested
	}
	idx := variantIndex(pos, iv, n)

	ev := &indexes.ModalityEvidence{
		Modality:   modality,
		OutputType: m.OutputType(modality),
	}
	if idx >= 0 && idx < n {
		i := idx
		ev.VariantIndex = &i
	}

	switch modality {
	case m.Expression:
		summarizeExpression(ev, pred, idx, n)
	case m.Splicing:
		summarizeSplicing(ev, pred, idx, n)
	case m.Chromatin:
		summarizeChromatin(ev, pred, idx, n)
	default:
		return nil, fmt.Errorf("unknown modality %q", modality)
	}

	if math.IsNaN(ev.Delta) || math.IsInf(ev.Delta, 0) {
		return nil, fmt.Errorf("%s delta is not finite", modality)
	}
	return ev, nil
}

func variantIndex(pos int, iv indexes.Interval, n int) int {
	bpPerPosition := float64(iv.Size()) / float64(n)
	if bpPerPosition <= 0 {
		return -1
	}
	return int(math.Floor(float64(pos-iv.Start) / bpPerPosition))
}

// flank clamps [idx-w, idx+w) to the track; an out-of-range index falls
// back to the whole track.
func flank(idx, w, n int) (int, int) {
	if idx < 0 || idx >= n {
		return 0, n
	}
	start, end := idx-w, idx+w
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if end <= start {
		end = start + 1
	}
	return start, end
}

// expression: mean(alt) - mean(ref) around the variant
func summarizeExpression(ev *indexes.ModalityEvidence, pred *prediction.Prediction, idx, n int) {
	start, end := flank(idx, flankWindow, n)
	refMean := mean(pred.Reference.Values[start:end])
	altMean := mean(pred.Alternate.Values[start:end])

	ev.ReferenceSignal = refMean
	ev.AlternateSignal = altMean
	ev.Delta = altMean - refMean
	ev.WindowSize = end - start
	if refMean != 0 {
		fc := altMean / refMean
		ev.FoldChange = &fc
	}
	ev.MeanChange = math.Abs(ev.Delta)
	ev.GlobalMaxChange = maxAbsDiff(pred.Reference.Values, pred.Alternate.Values, 0, n)
}

// splicing: largest |alt-ref| within an adaptive local window
func summarizeSplicing(ev *indexes.ModalityEvidence, pred *prediction.Prediction, idx, n int) {
	global := maxAbsDiff(pred.Reference.Values, pred.Alternate.Values, 0, n)
	ev.GlobalMaxChange = global
	ev.MeanChange = meanAbsDiff(pred.Reference.Values, pred.Alternate.Values, 0, n)

	w := n / 20
	if w > flankWindow {
		w = flankWindow
	}
	if w < 1 {
		w = 1
	}

	if idx < 0 || idx >= n {
		ev.Delta = global
		ev.WindowSize = n
	} else {
		start := idx - w
		if start < 0 {
			start = 0
		}
		end := idx + w + 1
		if end > n {
			end = n
		}
		ev.Delta = maxAbsDiff(pred.Reference.Values, pred.Alternate.Values, start, end)
		ev.WindowSize = end - start
	}
	ev.ReferenceSignal = mean(pred.Reference.Values)
	ev.AlternateSignal = mean(pred.Alternate.Values)
}

// chromatin: largest |alt-ref| around the variant
func summarizeChromatin(ev *indexes.ModalityEvidence, pred *prediction.Prediction, idx, n int) {
	start, end := flank(idx, flankWindow, n)
	ev.Delta = maxAbsDiff(pred.Reference.Values, pred.Alternate.Values, start, end)
	ev.MeanChange = meanAbsDiff(pred.Reference.Values, pred.Alternate.Values, start, end)
	ev.GlobalMaxChange = maxAbsDiff(pred.Reference.Values, pred.Alternate.Values, 0, n)
	ev.ReferenceSignal = mean(pred.Reference.Values[start:end])
	ev.AlternateSignal = mean(pred.Alternate.Values[start:end])
	ev.WindowSize = end - start
}

func mean(rows [][]float64) float64 {
	var sum float64
	var count int
	for _, row := range rows {
		for _, v := range row {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func maxAbsDiff(ref, alt [][]float64, start, end int) float64 {
	var max float64
	for i := start; i < end; i++ {
		for j := range ref[i] {
			if j >= len(alt[i]) {
				break
			}
			if d := math.Abs(alt[i][j] - ref[i][j]); d > max {
				max = d
			}
		}
	}
	return max
}

func meanAbsDiff(ref, alt [][]float64, start, end int) float64 {
	var sum float64
	var count int
	for i := start; i < end; i++ {
		for j := range ref[i] {
			if j >= len(alt[i]) {
				break
			}
			sum += math.Abs(alt[i][j] - ref[i][j])
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
