// Package device 模拟传感器设备：通过双工通道或一次性 HTTP 请求向控制服务发送强度信号
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"galactrl/server"
)

// peakPaths 动作名到一次性请求路径
var peakPaths = map[string]string{
	server.ActionNameRight: "/peakright",
	server.ActionNameLeft:  "/leftpeak",
	server.ActionNameShoot: "/shootpeak",
}

// PostPeak 以一次性请求发送一个信号，返回状态码与响应文本
// addr 形如 "192.168.1.110:3030"
func PostPeak(ctx context.Context, client *http.Client, addr, action string, value int64) (int, string, error) {
	path, ok := peakPaths[strings.ToLower(action)]
	if !ok {
		return 0, "", fmt.Errorf("unknown action %q", action)
	}
	body, err := json.Marshal(server.PeakBody{Peak: value})
	if err != nil {
		return 0, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+addr+path, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(text), nil
}

// Duplex 一条持久双工通道
type Duplex struct {
	conn     *websocket.Conn
	Greeting string
	timeout  time.Duration
}

// DialDuplex 建立双工通道并读取服务端首帧（若服务端配置了 greeting）
func DialDuplex(ctx context.Context, addr string, readGreeting bool) (*Duplex, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	d := &Duplex{conn: conn, timeout: 5 * time.Second}
	if readGreeting {
		msg, err := d.read()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("read greeting: %w", err)
		}
		d.Greeting = msg
	}
	return d, nil
}

// Send 发送一帧并等待确认文本（"ok" 或 "error: ..."）
func (d *Duplex) Send(action string, value int64) (string, error) {
	return d.SendRaw(mustMarshal(server.ControlMessage{Action: action, Value: value}))
}

// SendRaw 发送任意文本帧（用于测试非法载荷）
func (d *Duplex) SendRaw(payload []byte) (string, error) {
	_ = d.conn.SetWriteDeadline(time.Now().Add(d.timeout))
	if err := d.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return "", err
	}
	return d.read()
}

func (d *Duplex) read() (string, error) {
	_ = d.conn.SetReadDeadline(time.Now().Add(d.timeout))
	_, msg, err := d.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(msg), nil
}

// Close 发送正常关闭帧后关闭连接
func (d *Duplex) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = d.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return d.conn.Close()
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
