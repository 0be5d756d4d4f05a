package radio

type DecodeError struct{}

func (e DecodeError) Error() string {
	return "DecodeError"
}

type ClosedError struct{}

func (e ClosedError) Error() string {
	return "ClosedError"
}

type NotStartedError struct{}

func (e NotStartedError) Error() string {
	return "NotStartedError"
}

type OversizedMessageError struct{}

func (e OversizedMessageError) Error() string {
	return "OversizedMessageError"
}
