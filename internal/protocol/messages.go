package protocol

// Message tags for everything delegated to the server-proxy collaborator
// once the session is Active (spec §4.2, §4.5). Hello/HelloBack are the
// only tags the core encodes/decodes directly; these are package
// serverproxy's vocabulary.
const (
	TagEnter     = "CINN" // enter: x, y, seqNum(uint32), mask(uint16), forScreensaver(uint8)
	TagLeave     = "COUT" // leave: no args
	TagKeyDown   = "DKDN" // keyDown: keyCode(uint16), mask(uint16), button(uint16)
	TagKeyRepeat = "DKRP" // keyRepeat: keyCode(uint16), mask(uint16), count(int16), button(uint16)
	TagKeyUp     = "DKUP" // keyUp: keyCode(uint16), mask(uint16), button(uint16)

	TagMouseMoveAbs = "DMMV" // mouseMoveAbs: x(int32), y(int32)
	TagMouseMoveRel = "DMRM" // mouseMoveRel: dx(int32), dy(int32)
	TagMouseDown    = "DMDN" // mouseDown: button(uint8)
	TagMouseUp      = "DMUP" // mouseUp: button(uint8)
	TagMouseWheel   = "DMWM" // mouseWheel: xDelta(int32), yDelta(int32)

	TagClipboardSet     = "DCLP" // remote -> client: id(uint8), payload(rest)
	TagClipboardGrab    = "CCLP" // remote -> client: id(uint8)
	TagClipboardChanged = "DCCH" // client -> remote: id(uint8), payload(rest)
	TagClipboardOwned   = "CROP" // client -> remote (we grabbed): id(uint8)

	TagInfoChanged = "DINF" // client -> remote: x, y, w, h (int32 each)

	TagGameButtons    = "DGBT" // remote -> client: id(uint8), buttons(uint16)
	TagGameSticks     = "DGST" // remote -> client: id(uint8), x1,y1,x2,y2 (int16)
	TagGameTriggers   = "DGTR" // remote -> client: id(uint8), t1,t2 (uint8)
	TagGameTimingReq  = "DGTQ" // remote -> client: no args
	TagGameTimingResp = "DGTP" // client -> remote: freq(int32)
	TagGameFeedback   = "DGFB" // client -> remote: id(uint8), m1(uint16), m2(uint16)
)
