package blazetdf_test

import (
	"bytes"
	"fmt"

	"github.com/rmassey/blazetdf"
	"github.com/rmassey/blazetdf/packet"
	"github.com/rmassey/blazetdf/wire"
)

func Example() {
	body := wire.NewGroup()
	body.Add("MAIL", "test@example.com")
	body.Add("PASS", "hunter2")

	counter := packet.NewSimpleCounter()
	req, _ := packet.Request(counter, 0x0001, 0x0028, body)

	var buf bytes.Buffer
	req.Write(&buf)

	got, _ := packet.Read(&buf)
	fmt.Println(got.Kind, got.Component, got.Command, got.ID)

	// Pull one field off the live cursor without decoding the rest.
	mail, _ := got.Decoder().TaggedString("MAIL")
	fmt.Println(mail)
	// Output:
	// request 1 40 1
	// test@example.com
}

func ExampleMarshal() {
	type loginRequest struct {
		Mail string `tdf:"MAIL"`
		Pass string `tdf:"PASS"`
	}

	data, _ := blazetdf.Marshal(loginRequest{Mail: "a@b.c", Pass: "x"})
	fmt.Printf("%x\n", data)

	var decoded loginRequest
	blazetdf.Unmarshal(data, &decoded)
	fmt.Println(decoded.Mail)
	// Output:
	// b61a6c01066140622e6300c21cf301027800
	// a@b.c
}
