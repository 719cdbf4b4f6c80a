package engine

import (
	"strings"

	"github.com/yndnr/keymesh-go/internal/resp"
)

func (s *Server) installPubSubHandlers() {
	s.register("subscribe", cmdSubscribe)
	s.register("unsubscribe", cmdUnsubscribe)
	s.register("psubscribe", cmdPSubscribe)
	s.register("punsubscribe", cmdPUnsubscribe)
	s.register("publish", cmdPublish)
	s.register("pubsub", cmdPubSub)
}

// subscribeAck builds the per-channel confirmation frame. Confirmations
// are push frames so they interleave correctly with deliveries.
func subscribeAck(kind, name string, count int) resp.Value {
	return resp.Push(
		resp.BulkText(kind),
		resp.BulkText(name),
		resp.Integer(int64(count)),
	)
}

func cmdSubscribe(c *callCtx) resp.Value {
	channels := c.args.RestStrings()
	if len(channels) == 0 {
		return errWrongArgs("subscribe")
	}
	for _, ch := range channels {
		count := c.srv.hub.Subscribe(c.sess, ch)
		c.sess.DeliverPush(subscribeAck("subscribe", ch, count))
	}
	return suppressedReply
}

func cmdUnsubscribe(c *callCtx) resp.Value {
	channels := c.args.RestStrings()
	if len(channels) == 0 {
		chs, _ := c.srv.hub.Subscriptions(c.sess.id)
		channels = chs
	}
	if len(channels) == 0 {
		c.sess.DeliverPush(subscribeAck("unsubscribe", "", c.srv.hub.Count(c.sess.id)))
		return suppressedReply
	}
	for _, ch := range channels {
		count := c.srv.hub.Unsubscribe(c.sess, ch)
		c.sess.DeliverPush(subscribeAck("unsubscribe", ch, count))
	}
	return suppressedReply
}

func cmdPSubscribe(c *callCtx) resp.Value {
	patterns := c.args.RestStrings()
	if len(patterns) == 0 {
		return errWrongArgs("psubscribe")
	}
	for _, p := range patterns {
		count := c.srv.hub.SubscribePattern(c.sess, p)
		c.sess.DeliverPush(subscribeAck("psubscribe", p, count))
	}
	return suppressedReply
}

func cmdPUnsubscribe(c *callCtx) resp.Value {
	patterns := c.args.RestStrings()
	if len(patterns) == 0 {
		_, pats := c.srv.hub.Subscriptions(c.sess.id)
		patterns = pats
	}
	if len(patterns) == 0 {
		c.sess.DeliverPush(subscribeAck("punsubscribe", "", c.srv.hub.Count(c.sess.id)))
		return suppressedReply
	}
	for _, p := range patterns {
		count := c.srv.hub.UnsubscribePattern(c.sess, p)
		c.sess.DeliverPush(subscribeAck("punsubscribe", p, count))
	}
	return suppressedReply
}

func cmdPublish(c *callCtx) resp.Value {
	channel, _ := c.args.String()
	payload, _ := c.args.Next()
	n := c.srv.publish(channel, append([]byte(nil), payload...))
	return resp.Integer(int64(n))
}

func cmdPubSub(c *callCtx) resp.Value {
	sub, _ := c.args.String()
	switch strings.ToUpper(sub) {
	case "CHANNELS":
		pattern := ""
		if c.args.More() {
			pattern, _ = c.args.String()
		}
		return resp.BulkArrayStrings(c.srv.hub.Channels(pattern))
	case "NUMSUB":
		channels := c.args.RestStrings()
		counts := c.srv.hub.NumSub(channels)
		elems := make([]resp.Value, 0, len(channels)*2)
		for i, ch := range channels {
			elems = append(elems, resp.BulkText(ch), resp.Integer(int64(counts[i])))
		}
		return resp.Array(elems...)
	case "NUMPAT":
		return resp.Integer(int64(c.srv.hub.NumPat()))
	}
	return errUnknownSubcommand("pubsub", sub)
}
