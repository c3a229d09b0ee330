package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	portalDest      = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	screenCastIface = "org.freedesktop.portal.ScreenCast"
	requestIface    = "org.freedesktop.portal.Request"

	portalTimeout = 120 * time.Second // user may need time to pick a screen
)

// pipeWireDisplay streams the screen through the XDG ScreenCast portal and
// a gst-launch child process. The D-Bus connection holds the session open.
type pipeWireDisplay struct {
	*streamDisplay
	dbConn *dbus.Conn
	pwFile *os.File
}

func openPipeWireDisplay(ctx context.Context) (Display, string, error) {
	if !hasExecutable("gst-launch-1.0") {
		return nil, "", fmt.Errorf("gst-launch-1.0 not found")
	}

	_, _, w, h, err := primaryBounds()
	if err != nil {
		return nil, "", err
	}

	dbConn, nodeID, pwFile, err := acquirePipeWireNode(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("pipewire portal: %w", err)
	}

	// The stream outlives ctx; Close stops it.
	streamCtx, cancel := context.WithCancel(context.Background())

	// ExtraFiles[0] becomes fd 3 in the child.
	cmd := exec.CommandContext(streamCtx, "gst-launch-1.0", "-q",
		"pipewiresrc", fmt.Sprintf("path=%d", nodeID), "fd=3",
		"!", "videoconvert",
		"!", "videoscale",
		"!", fmt.Sprintf("video/x-raw,format=BGRx,width=%d,height=%d", w, h),
		"!", "fdsink", "fd=1",
	)
	cmd.ExtraFiles = []*os.File{pwFile}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		pwFile.Close()
		dbConn.Close()
		return nil, "", fmt.Errorf("gstreamer stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		pwFile.Close()
		dbConn.Close()
		return nil, "", fmt.Errorf("starting gstreamer: %w", err)
	}

	sd := newStreamDisplay(w, h, LayoutBGRX)
	sd.cancel = cancel
	sd.cmd = cmd
	go sd.readFrames(stdout)

	return &pipeWireDisplay{streamDisplay: sd, dbConn: dbConn, pwFile: pwFile}, "PipeWire", nil
}

func (d *pipeWireDisplay) Close() error {
	err := d.streamDisplay.Close()
	d.pwFile.Close()
	d.dbConn.Close()
	return err
}

// portalSession issues ScreenCast requests and waits for their Response
// signals.
type portalSession struct {
	conn   *dbus.Conn
	portal dbus.BusObject
	sender string
}

// request calls a ScreenCast method whose options carry a handle_token and
// returns the results of the matching Response signal.
func (p *portalSession) request(ctx context.Context, method, token string, args []interface{}, opts map[string]dbus.Variant) (map[string]dbus.Variant, error) {
	reqPath := dbus.ObjectPath(fmt.Sprintf("%s/request/%s/%s", portalPath, p.sender, token))

	ch := subscribeSignal(p.conn, reqPath)
	defer p.conn.RemoveSignal(ch)

	opts["handle_token"] = dbus.MakeVariant(token)
	call := p.portal.CallWithContext(ctx, screenCastIface+"."+method, 0, append(args, opts)...)
	if call.Err != nil {
		return nil, fmt.Errorf("%s: %w", method, call.Err)
	}

	resp, err := waitForResponse(ctx, ch, portalTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s response: %w", method, err)
	}
	return resp, nil
}

// acquirePipeWireNode negotiates a monitor ScreenCast session and returns
// the D-Bus connection (must stay open), the PipeWire node ID and the
// PipeWire remote fd for GStreamer.
func acquirePipeWireNode(ctx context.Context) (*dbus.Conn, uint32, *os.File, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, 0, nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	nodeID, pwFile, err := negotiateScreenCast(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, 0, nil, err
	}
	return conn, nodeID, pwFile, nil
}

func negotiateScreenCast(ctx context.Context, conn *dbus.Conn) (uint32, *os.File, error) {
	if !conn.SupportsUnixFDs() {
		return 0, nil, fmt.Errorf("D-Bus connection does not support Unix FD passing")
	}

	p := &portalSession{
		conn:   conn,
		portal: conn.Object(portalDest, dbus.ObjectPath(portalPath)),
		sender: senderToToken(conn.Names()[0]),
	}

	resp, err := p.request(ctx, "CreateSession", "colorpick_req_create", nil, map[string]dbus.Variant{
		"session_handle_token": dbus.MakeVariant("colorpick_session"),
	})
	if err != nil {
		return 0, nil, err
	}
	handle, ok := resp["session_handle"]
	if !ok {
		return 0, nil, fmt.Errorf("CreateSession: no session_handle in response")
	}
	session, ok := handle.Value().(string)
	if !ok {
		return 0, nil, fmt.Errorf("CreateSession: unexpected session_handle type %T", handle.Value())
	}
	sessionPath := dbus.ObjectPath(session)

	_, err = p.request(ctx, "SelectSources", "colorpick_req_select", []interface{}{sessionPath}, map[string]dbus.Variant{
		"types":    dbus.MakeVariant(uint32(1)), // 1 = monitor
		"multiple": dbus.MakeVariant(false),
	})
	if err != nil {
		return 0, nil, err
	}

	startResp, err := p.request(ctx, "Start", "colorpick_req_start", []interface{}{sessionPath, ""}, map[string]dbus.Variant{})
	if err != nil {
		return 0, nil, err
	}
	nodeID, err := extractNodeID(startResp)
	if err != nil {
		return 0, nil, err
	}

	var pwFd dbus.UnixFD
	err = p.portal.CallWithContext(ctx, screenCastIface+".OpenPipeWireRemote", 0, sessionPath, map[string]dbus.Variant{}).Store(&pwFd)
	if err != nil {
		return 0, nil, fmt.Errorf("OpenPipeWireRemote: %w", err)
	}
	pwFile := os.NewFile(uintptr(pwFd), "pipewire-remote")
	if pwFile == nil {
		return 0, nil, fmt.Errorf("invalid PipeWire fd")
	}
	return nodeID, pwFile, nil
}

// subscribeSignal registers a match for the portal Response signal at path.
func subscribeSignal(conn *dbus.Conn, path dbus.ObjectPath) chan *dbus.Signal {
	ch := make(chan *dbus.Signal, 1)
	conn.Signal(ch)
	conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0,
		fmt.Sprintf("type='signal',interface='%s',member='Response',path='%s'", requestIface, path))
	return ch
}

// waitForResponse waits for a portal Response signal and returns its results.
// A non-zero response code means the user denied or the request failed.
// It gives up when ctx is done or timeout passes, whichever is first.
func waitForResponse(ctx context.Context, ch chan *dbus.Signal, timeout time.Duration) (map[string]dbus.Variant, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case sig := <-ch:
			if sig == nil {
				return nil, fmt.Errorf("signal channel closed")
			}
			results, done, err := parseResponse(sig)
			if done {
				return results, err
			}
		case <-timer.C:
			return nil, fmt.Errorf("timed out waiting for portal response")
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// parseResponse decodes a Response signal body. done is false for signals
// that are not portal responses.
func parseResponse(sig *dbus.Signal) (results map[string]dbus.Variant, done bool, err error) {
	if len(sig.Body) < 2 {
		return nil, false, nil
	}
	code, ok := sig.Body[0].(uint32)
	if !ok {
		return nil, false, nil
	}
	if code != 0 {
		return nil, true, fmt.Errorf("portal request denied (code %d)", code)
	}
	results, ok = sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, true, fmt.Errorf("unexpected response type %T", sig.Body[1])
	}
	return results, true, nil
}

// senderToToken converts a D-Bus sender name like ":1.42" to "1_42".
func senderToToken(sender string) string {
	s := strings.TrimPrefix(sender, ":")
	return strings.ReplaceAll(s, ".", "_")
}

// extractNodeID pulls the PipeWire node ID out of the Start response, whose
// streams field is a(ua{sv}).
func extractNodeID(resp map[string]dbus.Variant) (uint32, error) {
	v, ok := resp["streams"]
	if !ok {
		return 0, fmt.Errorf("no streams in Start response")
	}

	var first interface{}
	switch streams := v.Value().(type) {
	case [][]interface{}:
		if len(streams) == 0 {
			return 0, fmt.Errorf("no streams returned")
		}
		first = streams[0]
	case []interface{}:
		if len(streams) == 0 {
			return 0, fmt.Errorf("no streams returned")
		}
		first = streams[0]
	default:
		return 0, fmt.Errorf("unexpected streams type: %T", v.Value())
	}

	entry, ok := first.([]interface{})
	if !ok || len(entry) == 0 {
		return 0, fmt.Errorf("unexpected stream entry: %T", first)
	}
	nodeID, ok := entry[0].(uint32)
	if !ok {
		return 0, fmt.Errorf("unexpected node ID type: %T", entry[0])
	}
	return nodeID, nil
}
