package core

// MessageType identifies one message on a channel. The values are the wire
// names of the protocol events exchanged with the hosting server.
type MessageType string

// Messages received from the server.
const (
	MessageHTTPRequest    MessageType = "http.request"
	MessageHTTPDisconnect MessageType = "http.disconnect"
	MessageStartup        MessageType = "lifespan.startup"
	MessageShutdown       MessageType = "lifespan.shutdown"
)

// Messages sent to the server.
const (
	MessageResponseStart    MessageType = "http.response.start"
	MessageResponseBody     MessageType = "http.response.body"
	MessageStartupComplete  MessageType = "lifespan.startup.complete"
	MessageStartupFailed    MessageType = "lifespan.startup.failed"
	MessageShutdownComplete MessageType = "lifespan.shutdown.complete"
	MessageShutdownFailed   MessageType = "lifespan.shutdown.failed"
)

// ChannelKind is the connection type announced by the server for one channel.
type ChannelKind string

const (
	KindLifespan  ChannelKind = "lifespan"
	KindHTTP      ChannelKind = "http"
	KindWebsocket ChannelKind = "websocket"
)

// Message is one protocol event. Only the fields relevant to the Type are
// populated: Status and Headers on a response start, Body and More on request
// and response body messages, Reason on failed lifecycle handshakes.
type Message struct {
	Type    MessageType
	Status  int
	Headers [][2]string
	Body    []byte
	More    bool
	Reason  string
}
