package signal

func (ctl *Controller) handlePing(sess *clientSession) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(sess.conn, resp)
}
