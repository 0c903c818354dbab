// Lambda front end: the same invoke pipeline as httpsrv, behind an
// API Gateway proxy event.
package lambdasrv

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"wasmfn/config"
	db "wasmfn/debug"
	"wasmfn/fnsrv"
)

type LambdaSrv struct {
	fsrv      *fnsrv.FnSrv
	defaultFn string
}

func NewLambdaSrv(cfg *config.FnConfig) (*LambdaSrv, error) {
	fsrv, err := fnsrv.NewFnSrv(cfg)
	if err != nil {
		return nil, err
	}
	return &LambdaSrv{fsrv: fsrv, defaultFn: cfg.DefaultFn}, nil
}

func (ls *LambdaSrv) Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: err.Error()}, nil
		}
		body = b
	}
	fn := req.PathParameters["fn"]
	if fn == "" {
		fn = ls.defaultFn
	}
	db.DPrintf(db.LAMBDASRV, "invoke %v nbyte %v", fn, len(body))
	res, err := ls.fsrv.ServeRequest(ctx, fn, body)
	if errors.Is(err, fnsrv.ErrUnknownFn) {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNotFound, Body: err.Error()}, nil
	}
	if err != nil {
		db.DPrintf(db.LAMBDASRV_ERR, "invoke %v err %v", fn, err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError, Body: err.Error()}, nil
	}
	return events.APIGatewayProxyResponse{
		StatusCode:      http.StatusOK,
		Headers:         map[string]string{"Content-Type": "text/html"},
		Body:            base64.StdEncoding.EncodeToString(res),
		IsBase64Encoded: true,
	}, nil
}

func (ls *LambdaSrv) Run() {
	lambda.Start(ls.Handler)
}
