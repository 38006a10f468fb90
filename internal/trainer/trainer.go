// Package trainer is the client boundary to the external ML pipeline
// that consumes the prepared CSV pair. The pipeline owns loading,
// featurization, model training, evaluation, and model persistence;
// this package only submits files and reads back results.
package trainer

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Pipeline is the minimal surface of the external training service.
type Pipeline interface {
	// Train submits the prepared train/test CSV pair and returns the
	// evaluation of the resulting model.
	Train(trainPath, testPath string) (*Evaluation, error)

	// Predict asks the most recently trained model whether the given
	// user would recommend the given movie.
	Predict(userID, movieID string) (*Prediction, error)
}

// Evaluation reports the external pipeline's metrics on the test set.
type Evaluation struct {
	Accuracy float64 `json:"accuracy"`
	AUC      float64 `json:"auc"`
	ModelURI string  `json:"modelUri"`
}

// Prediction is a single recommend / not-recommend answer.
type Prediction struct {
	Label       bool    `json:"label"`
	Probability float64 `json:"probability"`
	Score       float64 `json:"score"`
}

// MetricsSink receives trainer request counters. Implemented by
// metrics.Wrapper; a nil sink disables reporting.
type MetricsSink interface {
	TrainRequestInc()
	TrainFailureInc()
	PredictRequestInc()
	PredictFailureInc()
	TrainerLatencyObserve(d time.Duration)
}

// Client talks to the external training service over HTTP.
type Client struct {
	base string
	rest *resty.Client
	sink MetricsSink
}

var _ Pipeline = (*Client)(nil)

// NewClient creates a trainer client for the given base URL. A nil
// sink disables metrics reporting.
func NewClient(base string, timeout time.Duration, sink MetricsSink) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second) // default fallback
	}
	return &Client{base: base, rest: r, sink: sink}
}

type predictReq struct {
	UserID  string `json:"userId"`
	MovieID string `json:"movieId"`
}

// Train uploads the two prepared CSVs as multipart files and returns
// the pipeline's evaluation of the trained model.
func (c *Client) Train(trainPath, testPath string) (*Evaluation, error) {
	if c.sink != nil {
		c.sink.TrainRequestInc()
	}
	start := time.Now()

	eval := &Evaluation{}
	resp, err := c.rest.R().
		SetFile("training", trainPath).
		SetFile("test", testPath).
		SetResult(eval).
		Post(c.base + "/train")

	if c.sink != nil {
		c.sink.TrainerLatencyObserve(time.Since(start))
	}
	if err != nil {
		if c.sink != nil {
			c.sink.TrainFailureInc()
		}
		return nil, fmt.Errorf("train request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		if c.sink != nil {
			c.sink.TrainFailureInc()
		}
		return nil, fmt.Errorf("trainer: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	return eval, nil
}

// Predict requests a single recommendation from the trained model.
func (c *Client) Predict(userID, movieID string) (*Prediction, error) {
	if c.sink != nil {
		c.sink.PredictRequestInc()
	}
	start := time.Now()

	pred := &Prediction{}
	resp, err := c.rest.R().
		SetBody(predictReq{UserID: userID, MovieID: movieID}).
		SetResult(pred).
		Post(c.base + "/predict")

	if c.sink != nil {
		c.sink.TrainerLatencyObserve(time.Since(start))
	}
	if err != nil {
		if c.sink != nil {
			c.sink.PredictFailureInc()
		}
		return nil, fmt.Errorf("predict request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		if c.sink != nil {
			c.sink.PredictFailureInc()
		}
		return nil, fmt.Errorf("trainer: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	return pred, nil
}
