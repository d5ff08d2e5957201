package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/tendermint/tendermint/libs/log"
	jsonrpc "github.com/tendermint/tendermint/rpc/jsonrpc/types"
)

const (
	sendTimeout = 10 * time.Second
	readTimeout = 10 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func connect(host string) (*websocket.Conn, *http.Response, error) {
	u := url.URL{Scheme: "ws", Host: host, Path: "/websocket"}
	return websocket.DefaultDialer.Dial(u.String(), nil)
}

// newRequest 构造JSON-RPC请求，params为nil时不带参数
func newRequest(method string, id int, params map[string]interface{}) (jsonrpc.RPCRequest, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return jsonrpc.RPCRequest{}, errors.Wrap(err, "failed to encode params")
	}
	return jsonrpc.RPCRequest{
		JSONRPC: "2.0",
		ID:      jsonrpc.JSONRPCIntID(id),
		Method:  method,
		Params:  paramsJSON,
	}, nil
}

// buildParams 按method把命令行参数转换为RPC参数
func buildParams(method, arg string) (map[string]interface{}, error) {
	switch method {
	case "epoch":
		return nil, nil
	case "epoch_at":
		if arg == "" {
			return nil, errors.New("epoch_at needs a timestamp")
		}
		return map[string]interface{}{"ts": arg}, nil
	case "epoch_timestamp":
		if arg == "" {
			return nil, errors.New("epoch_timestamp needs an epoch")
		}
		// uint32以数字编码，int64以字符串编码
		e, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return nil, errors.Wrap(err, "invalid epoch")
		}
		return map[string]interface{}{"epoch": uint32(e)}, nil
	case "metrics":
		return map[string]interface{}{"label": arg}, nil
	default:
		return nil, errors.Errorf("unknown method %s", method)
	}
}

func query(c *websocket.Conn, req jsonrpc.RPCRequest) (*jsonrpc.RPCResponse, error) {
	if err := c.SetWriteDeadline(time.Now().Add(sendTimeout)); err != nil {
		return nil, err
	}
	if err := c.WriteJSON(req); err != nil {
		return nil, errors.Wrap(err, "failed to write request")
	}

	if err := c.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return nil, err
	}
	_, data, err := c.ReadMessage()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	var resp jsonrpc.RPCResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return &resp, nil
}

func main() {
	var (
		target string
		method string
		count  int
		period time.Duration
	)
	flag.StringVar(&target, "target", "127.0.0.1:26657", "rpc host:port")
	flag.StringVar(&method, "method", "epoch", "epoch, epoch_at, epoch_timestamp or metrics")
	flag.IntVar(&count, "n", 1, "number of queries")
	flag.DurationVar(&period, "period", time.Second, "time between queries")
	flag.Parse()

	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).With("module", "epoch_query")

	params, err := buildParams(method, flag.Arg(0))
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	c, _, err := connect(target)
	if err != nil {
		logger.Error("failed to connect", "target", target, "err", err)
		os.Exit(1)
	}
	defer c.Close()

	for i := 0; i < count; i++ {
		if i > 0 {
			time.Sleep(period)
		}
		req, err := newRequest(method, i, params)
		if err != nil {
			logger.Error("failed to build request", "err", err)
			os.Exit(1)
		}
		resp, err := query(c, req)
		if err != nil {
			logger.Error("query failed", "method", method, "err", err)
			continue
		}
		logger.Info("query result", "method", method, "result", string(resp.Result))
	}
}
