package processor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nao1215/edgerelay/pkg/dispatch"
	"github.com/nao1215/edgerelay/pkg/logging"
)

// commsTimeout はNATS経由で届いたリクエスト1件あたりの処理時間の上限。
const commsTimeout = 60 * time.Second

// SubscribeComms は担当リージョンのディスパッチサブジェクトの購読を開始する。
// 同一リージョンのプロセッサは同じキューグループに属するため、
// 1つの封筒はいずれか1台だけが処理する。
func (s *Server) SubscribeComms(nc *nats.Conn) (*nats.Subscription, error) {
	subject := dispatch.SubscribeSubject(s.region)
	sub, err := nc.QueueSubscribe(subject, dispatch.QueueGroup(s.region), func(msg *nats.Msg) {
		s.handleCommsMessage(msg)
	})
	if err != nil {
		return nil, err
	}

	logging.Infof("ディスパッチサブジェクトの購読を開始: %s", subject)
	return sub, nil
}

// handleCommsMessage はディスパッチ封筒1件を処理して応答を返す。
func (s *Server) handleCommsMessage(msg *nats.Msg) {
	var env dispatch.Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		logging.Errorf("ディスパッチ封筒の解析に失敗: %v", err)
		s.respondComms(msg, http.StatusBadRequest, errorBody("ディスパッチ封筒の解析に失敗しました"))
		return
	}

	level := logging.LevelFromHeader(env.LogLevel)
	ctx, cancel := context.WithTimeout(context.Background(), commsTimeout)
	defer cancel()

	status, payload := s.process(ctx, env.RequestType, env.Body, level, env.RequestID)
	s.respondComms(msg, status, payload)
}

// respondComms は応答封筒をシリアライズして返信する。
func (s *Server) respondComms(msg *nats.Msg, status int, payload []byte) {
	reply, err := json.Marshal(dispatch.ReplyEnvelope{
		Status:      status,
		ContentType: "application/json",
		Body:        payload,
	})
	if err != nil {
		logging.Errorf("応答封筒のシリアライズに失敗: %v", err)
		return
	}
	if err := msg.Respond(reply); err != nil {
		logging.Errorf("応答の返信に失敗: %v", err)
	}
}
