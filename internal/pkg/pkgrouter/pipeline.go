package pkgrouter

import "context"

// stage is one step of the dispatch pipeline. Stages run strictly in order
// and the first error stops the request.
type stage struct {
	name string
	run  func(ctx context.Context, r *Router, rc *RequestContext) error
}

func defaultStages() []stage {
	return []stage{
		{name: "verify", run: verifyStage},
		{name: "decode", run: decodeStage},
		{name: "handle", run: handleStage},
		{name: "encode", run: encodeStage},
		{name: "sign", run: signStage},
		{name: "login", run: loginStage},
	}
}

func verifyStage(ctx context.Context, _ *Router, rc *RequestContext) error {
	if rc.entry.verify == nil {
		return nil
	}
	user, err := rc.entry.verify(ctx, rc.Request)
	if err != nil {
		return err
	}
	rc.User = user
	return nil
}

func decodeStage(_ context.Context, r *Router, rc *RequestContext) error {
	payload, err := decodePayload(rc.Request, r.maxMemory)
	if err != nil {
		return err
	}
	rc.Payload = payload
	return nil
}

func handleStage(ctx context.Context, _ *Router, rc *RequestContext) error {
	result, err := rc.entry.handler(ctx, rc.Payload, rc)
	if err != nil {
		return err
	}
	rc.Result = result
	return nil
}

func encodeStage(_ context.Context, r *Router, rc *RequestContext) error {
	res, err := Infer(rc.Result)
	if err != nil {
		return err
	}
	resp, err := r.encode(rc.Request.Method, res)
	if err != nil {
		return err
	}
	rc.Response = resp
	return nil
}

func signStage(ctx context.Context, _ *Router, rc *RequestContext) error {
	if rc.entry.sign == nil {
		return nil
	}
	return rc.entry.sign(ctx, rc.Response, rc.User)
}

func loginStage(ctx context.Context, _ *Router, rc *RequestContext) error {
	if rc.entry.login == nil {
		return nil
	}
	return rc.entry.login(ctx, rc.Response, rc.Result)
}
